// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

// Repository-level errors. Adapters translate driver errors into these.
var (
	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when the store's unique email index rejects an insert.
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Identity service errors. Handlers map each of these to a specific HTTP status.
var (
	// ErrDuplicateIdentity is returned by Register when the email is already registered.
	ErrDuplicateIdentity = errors.New("email id already exists")

	// ErrUnknownIdentity is returned when no user exists for the given email.
	ErrUnknownIdentity = errors.New("unknown identity")

	// ErrInvalidCredential is returned by Login when the password does not match.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrMissingIdentifier is returned by Update when no email was supplied.
	ErrMissingIdentifier = errors.New("email not found in the request headers")

	// ErrIdentityMismatch is returned by Update when the email does not belong to the authenticated user.
	ErrIdentityMismatch = errors.New("email does not match authenticated user")

	// ErrStore wraps any persistence-layer fault.
	ErrStore = errors.New("store error")
)
