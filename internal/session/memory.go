package session

import (
	"context"
	"sync"
	"time"

	"github.com/prn-tf/gatehouse/internal/domain"
)

// MemoryStore implements Store using in-memory storage.
// This is suitable for single-node deployments where Redis is not available.
// Sessions do NOT survive process restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	stopCh   chan struct{}
	stopped  bool
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*domain.Session),
		stopCh:   make(chan struct{}),
	}

	// Start cleanup goroutine.
	go s.cleanupLoop()

	return s
}

// cleanupLoop periodically removes expired sessions.
func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired sessions.
func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, token)
		}
	}
}

// Create creates a session for the user and returns its token.
func (s *MemoryStore) Create(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	s.mu.Lock()
	s.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	s.mu.Unlock()

	return token, nil
}

// Resolve returns the user ID for the token.
func (s *MemoryStore) Resolve(ctx context.Context, token string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || sess.Expired(time.Now()) {
		return 0, domain.ErrSessionNotFound
	}
	return sess.UserID, nil
}

// Destroy removes the session.
func (s *MemoryStore) Destroy(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// DestroyUser removes all sessions belonging to the user.
func (s *MemoryStore) DestroyUser(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	for token, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stopped {
		s.stopped = true
		close(s.stopCh)
	}
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
