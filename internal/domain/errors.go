package domain

import "errors"

var (
	// ErrValidation marks malformed client input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an operation on an id the store does not have.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable marks a store that cannot be reached or a failed commit.
	ErrStoreUnavailable = errors.New("store unavailable")
)
