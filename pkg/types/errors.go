package types

import "errors"

// Domain errors shared across retrieval stages
var (
	// ErrConfiguration is returned when the archive or another required collaborator is unavailable
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound is returned when an archive path does not resolve to an entry
	ErrNotFound = errors.New("not found")
	// ErrEncoding is returned when text could not be turned into vectors
	ErrEncoding = errors.New("encoding failed")

	// Retrieval item validation errors
	ErrInvalidScore = errors.New("score must be between -1 and 1 or the fallback score")
	ErrEmptyURL     = errors.New("url cannot be empty")
)
