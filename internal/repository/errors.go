package repository

import "errors"

var (
	// ErrNotFound is returned when no row matches a lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateAccount is returned when an insert hits the live
	// account-name unique index.
	ErrDuplicateAccount = errors.New("account name already exists")
)
