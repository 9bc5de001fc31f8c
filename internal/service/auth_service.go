package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatehouse/internal/domain"
	"github.com/prn-tf/gatehouse/internal/metrics"
	"github.com/prn-tf/gatehouse/internal/pkg/password"
	"github.com/prn-tf/gatehouse/internal/repository"
)

// LockoutPolicy configures the brute-force lockout behavior.
type LockoutPolicy struct {
	// MaxFailedAttempts is the consecutive-failure count that locks the account.
	MaxFailedAttempts int

	// LockDuration is how long a locked account stays locked.
	LockDuration time.Duration
}

// AuthService validates credentials and maintains per-account lockout state.
//
// The state machine per user, relative to login attempts:
//
//	Active(n) -> failure -> Active(n+1) -> reaches threshold -> Locked(until)
//	Locked(until) -> time elapses -> Active, next success resets to Active(0)
//
// A locked account rejects attempts before any credential comparison, and a
// locked check never mutates state. Only the passage of time ends a lock.
type AuthService struct {
	userRepo repository.UserRepository
	hasher   *password.Hasher
	policy   LockoutPolicy
	metrics  *metrics.Metrics
	now      func() time.Time
	logger   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	hasher *password.Hasher,
	policy LockoutPolicy,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		policy:   policy,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger.With().Str("service", "auth").Logger(),
	}
}

// WithClock replaces the time source. Tests use this to step through
// lock windows without sleeping.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Authenticate verifies the email/password pair and applies the lockout policy.
//
// Returns domain.ErrInvalidCredentials for both an unknown email and a wrong
// password, so responses never reveal whether the email is registered.
// Returns domain.ErrAccountLocked while the lock window is open.
func (s *AuthService) Authenticate(ctx context.Context, email, plaintext string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Log but never expose whether the email exists.
			s.logger.Debug().Msg("login attempt for unknown email")
			s.metrics.LoginAttempts.WithLabelValues(metrics.ResultFailure).Inc()
			return nil, domain.ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Msg("failed to load user for authentication")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	now := s.now()

	// Locked accounts are rejected before any credential comparison.
	// The counter and lock timestamp are deliberately left untouched.
	if user.Locked(now) {
		s.logger.Info().
			Int64("user_id", user.ID).
			Time("lock_until", *user.LockUntil).
			Msg("login attempt on locked account")
		s.metrics.LoginAttempts.WithLabelValues(metrics.ResultLocked).Inc()
		return nil, domain.ErrAccountLocked
	}

	if s.hasher.Verify(user.PasswordHash, plaintext) {
		if err := s.userRepo.UpdateLoginState(ctx, user.ID, 0, nil); err != nil {
			s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to reset login state")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		user.FailedAttempts = 0
		user.LockUntil = nil

		s.logger.Info().Int64("user_id", user.ID).Msg("user authenticated")
		s.metrics.LoginAttempts.WithLabelValues(metrics.ResultSuccess).Inc()
		return user, nil
	}

	// Failed comparison: bump the counter and lock when the threshold is hit.
	// Concurrent failures may lose an increment; the read-modify-write race
	// is accepted, the counter is advisory rather than exact.
	attempts := user.FailedAttempts + 1
	var lockUntil *time.Time
	if attempts >= s.policy.MaxFailedAttempts {
		t := now.Add(s.policy.LockDuration)
		lockUntil = &t
	}

	if err := s.userRepo.UpdateLoginState(ctx, user.ID, attempts, lockUntil); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to record failed attempt")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if lockUntil != nil {
		s.logger.Warn().
			Int64("user_id", user.ID).
			Int("failed_attempts", attempts).
			Time("lock_until", *lockUntil).
			Msg("account locked")
		s.metrics.Lockouts.Inc()
	} else {
		s.logger.Debug().
			Int64("user_id", user.ID).
			Int("failed_attempts", attempts).
			Msg("invalid password during authentication")
	}

	s.metrics.LoginAttempts.WithLabelValues(metrics.ResultFailure).Inc()
	return nil, domain.ErrInvalidCredentials
}
