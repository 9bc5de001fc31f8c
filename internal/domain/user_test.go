package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewUserDefaults(t *testing.T) {
	user := NewUser("alice", "alice@example.com", "hash")

	if user.AvatarPath != DefaultAvatarPath {
		t.Errorf("expected default avatar, got %q", user.AvatarPath)
	}
	if user.FailedAttempts != 0 {
		t.Errorf("expected zero failed attempts, got %d", user.FailedAttempts)
	}
	if user.LockUntil != nil {
		t.Errorf("expected no lock, got %v", user.LockUntil)
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestUserLocked(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	user := &User{}
	if user.Locked(now) {
		t.Error("user without lock timestamp reported locked")
	}

	future := now.Add(time.Hour)
	user.LockUntil = &future
	if !user.Locked(now) {
		t.Error("user with future lock timestamp reported unlocked")
	}
	if user.Locked(future) {
		t.Error("lock still active at its own expiry instant")
	}
	if user.Locked(future.Add(time.Second)) {
		t.Error("lock still active after expiry")
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	sess := &Session{ExpiresAt: now.Add(time.Minute)}

	if sess.Expired(now) {
		t.Error("live session reported expired")
	}
	if !sess.Expired(now.Add(2 * time.Minute)) {
		t.Error("expired session reported live")
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	err := NewDomainError(ErrUserAlreadyExists, "username taken", "alice")

	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Error("DomainError does not unwrap to its sentinel")
	}

	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatal("errors.As failed for DomainError")
	}
	if de.Resource != "alice" {
		t.Errorf("expected resource 'alice', got %q", de.Resource)
	}
	if err.Error() == "" {
		t.Error("empty error message")
	}
}
