package common

// TokenDelimiter separates the user ID and token value runs of an encoded token.
const TokenDelimiter = ":"

// Status values used in JSON response bodies.
const (
	StatusOK    = "ok"
	StatusError = "error"
)
