package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrNotOwner indicates the record exists but belongs to a different user.
	ErrNotOwner = errors.New("record owned by another user")
	// ErrInvalidID indicates the store rejected an identifier as malformed.
	ErrInvalidID = errors.New("invalid identifier")
)
