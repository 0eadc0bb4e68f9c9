// Package models holds the server-side persistent entities and the value
// conversions shared by repositories.
package models

// Int64FromUint64 reinterprets u as a signed value for BIGINT columns.
func Int64FromUint64(u uint64) int64 { return int64(u) }

// Uint64FromInt64 reverses Int64FromUint64.
func Uint64FromInt64(i int64) uint64 { return uint64(i) }
