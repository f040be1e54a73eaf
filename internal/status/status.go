package status

import "errors"

var (
	ErrNotFound     = errors.New("registration: not found")
	ErrUnauthorized = errors.New("registration: unauthorized")
	ErrValidation   = errors.New("registration: invalid input")

	// ErrConflict reports a lost write race, e.g. a ticket slot another
	// issuer already claimed.
	ErrConflict = errors.New("registration: conflicting state")
)
