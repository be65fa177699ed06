package store

import "errors"

var (
	// ErrNotFound covers both "no such record" and "record owned by
	// someone else"; the two are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	ErrDuplicateEmail = errors.New("email already registered")
)
