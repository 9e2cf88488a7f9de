// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// User represents a registered user of the marketplace.
// It contains authentication credentials and profile metadata.
type User struct {
	// ID is the store's primary key rendered as text.
	ID string

	// Email is the user's email address used for authentication.
	// It is unique across all users and immutable once set.
	Email string

	// FirstName is returned as the display name on login.
	FirstName string

	// LastName of the user.
	LastName string

	// PasswordHash is the self-describing bcrypt digest.
	// This should never store plaintext passwords.
	PasswordHash string

	// CreatedAt is the timestamp when the user registered.
	CreatedAt time.Time

	// UpdatedAt is the timestamp of the last profile update, nil if never updated.
	UpdatedAt *time.Time
}

// ProfilePatch holds the optional profile fields of an update request.
// A nil field leaves the stored value untouched.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
}

// IsEmpty reports whether the patch changes no profile field.
func (p ProfilePatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil
}

// ApplyTo copies the present patch fields onto u.
func (p ProfilePatch) ApplyTo(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
}
