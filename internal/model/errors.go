package model

import "errors"

var (
	// ErrNotFound is returned when a requested entity or key does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidCredentials is returned by the identity service on a bad
	// email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken is returned by the identity service when signup hits an
	// already registered email.
	ErrEmailTaken = errors.New("email already taken")

	// ErrNotAuthenticated is returned by operations that require a session
	// when none is present.
	ErrNotAuthenticated = errors.New("not authenticated")
)
