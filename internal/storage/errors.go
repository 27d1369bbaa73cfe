package storage

import "errors"

// Shared errors for the in-memory stores.
var (
	// ErrNotFound is returned when a requested entry does not exist or has expired.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a record whose key already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
