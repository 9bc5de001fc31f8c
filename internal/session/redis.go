package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gatehouse/internal/config"
	"github.com/prn-tf/gatehouse/internal/domain"
)

// Key layout:
//   session:{token}      -> user ID, with the session TTL
//   session:user:{id}    -> set of live tokens for that user
//
// The reverse index lets account deletion destroy every live session for
// the user in one call.

// RedisStore implements Store using Redis.
// Sessions survive server restarts and are shared across instances.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed session store and verifies
// the connection.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr()).Int("db", cfg.DB).Msg("connected to Redis")

	return &RedisStore{
		client: client,
		logger: logger.With().Str("component", "session_redis").Logger(),
	}, nil
}

// Create creates a session for the user and returns its token.
func (s *RedisStore) Create(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(token), strconv.FormatInt(userID, 10), ttl)
	pipe.SAdd(ctx, userKey(userID), token)
	// Keep the reverse index from leaking forever if every token expires.
	pipe.Expire(ctx, userKey(userID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return token, nil
}

// Resolve returns the user ID for the token.
func (s *RedisStore) Resolve(ctx context.Context, token string) (int64, error) {
	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, domain.ErrSessionNotFound
		}
		return 0, fmt.Errorf("failed to resolve session: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session value: %w", err)
	}
	return userID, nil
}

// Destroy removes the session.
func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	// Look up the owner first so the reverse index stays consistent.
	userID, err := s.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(token))
	pipe.SRem(ctx, userKey(userID), token)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// DestroyUser removes all sessions belonging to the user.
func (s *RedisStore) DestroyUser(ctx context.Context, userID int64) error {
	tokens, err := s.client.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, sessionKey(token))
	}
	pipe.Del(ctx, userKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to destroy user sessions: %w", err)
	}

	s.logger.Debug().Int64("user_id", userID).Int("count", len(tokens)).Msg("destroyed user sessions")
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func sessionKey(token string) string {
	return "session:" + token
}

func userKey(userID int64) string {
	return "session:user:" + strconv.FormatInt(userID, 10)
}

// Ensure RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
