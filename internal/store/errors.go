package store

import "errors"

// Sentinel errors for business-rule failures. Handlers match these with
// errors.Is to pick a response status; everything else is an internal error.
var (
	// ErrValidation marks malformed or incomplete input, such as a task
	// created with no items or referencing an unknown item.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced task, item, report or user id that
	// does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks an operation attempted from a status that
	// forbids it, such as adjudicating a task that was never submitted.
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict marks a stale write rejected by the version precondition
	// on task mutations.
	ErrConflict = errors.New("version conflict")
)
