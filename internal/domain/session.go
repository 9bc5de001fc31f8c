package domain

import "time"

// Session associates an opaque browser token with a signed-in user.
// Sessions carry no other state; everything else is looked up by user ID.
type Session struct {
	// Token is the opaque, unguessable session identifier.
	Token string `json:"-"`

	// UserID is the ID of the authenticated user.
	UserID int64 `json:"user_id"`

	// ExpiresAt is when the session stops resolving.
	ExpiresAt time.Time `json:"expires_at"`

	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
