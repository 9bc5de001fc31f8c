// Package session manages browser sessions for Gatehouse.
// A session is an opaque, unguessable token mapped to a user ID with a TTL.
// Two stores are provided: Redis for multi-node deployments and an in-memory
// store for single-node or development use.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// tokenBytes is the entropy of a session token before encoding.
const tokenBytes = 32

// Store defines the interface for session persistence.
type Store interface {
	// Create creates a session for the user and returns its token.
	Create(ctx context.Context, userID int64, ttl time.Duration) (string, error)

	// Resolve returns the user ID for the token.
	// Returns domain.ErrSessionNotFound for unknown, expired, or
	// destroyed tokens.
	Resolve(ctx context.Context, token string) (int64, error)

	// Destroy removes the session. A destroyed token must never resolve
	// again. Destroying an unknown token is not an error.
	Destroy(ctx context.Context, token string) error

	// DestroyUser removes all sessions belonging to the user.
	// Used when an account is deleted.
	DestroyUser(ctx context.Context, userID int64) error

	// Close releases store resources.
	Close() error
}

// generateToken creates a new random session token.
// 32 bytes of crypto/rand entropy, base64 URL encoding without padding.
func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
