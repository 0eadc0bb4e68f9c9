// Package verifiedtokens declares the persistent store of promoted tokens.
// Each user has at most one verified token; promoting a new one replaces it.
package verifiedtokens

import "context"

// Repository stores and checks verified tokens.
type Repository interface {
	// IsVerified reports whether value is the current verified token of userID.
	IsVerified(ctx context.Context, userID, value uint64) (bool, error)

	// Upsert makes value the verified token of userID.
	Upsert(ctx context.Context, userID, value uint64) error
}
