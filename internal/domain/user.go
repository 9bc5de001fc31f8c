// Package domain contains the core business entities for Gatehouse.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the account system.
package domain

import (
	"time"
)

// DefaultAvatarPath is the avatar served for users who never uploaded one.
const DefaultAvatarPath = "/static/default-profile.svg"

// User represents a registered account.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Username is the unique username for display.
	// Constraints: 3-255 characters.
	Username string `json:"username"`

	// Email is the unique email address used to sign in.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// The plaintext password is never persisted or logged.
	PasswordHash string `json:"-"`

	// AvatarPath is the public path of the user's avatar image.
	AvatarPath string `json:"avatar_path"`

	// FailedAttempts counts consecutive failed login attempts.
	// Reset to zero on any successful authentication.
	FailedAttempts int `json:"-"`

	// LockUntil, when non-nil, blocks authentication until the given time.
	LockUntil *time.Time `json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with default values.
func NewUser(username, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		AvatarPath:   DefaultAvatarPath,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Locked reports whether the account is locked out at the given instant.
// A lock is lifted only by time passing; nothing else clears it.
func (u *User) Locked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}
