// Package sessionstore implements C2, the Session Store: a durable
// mapping session-id -> backend target URL with at-least-once durability
// and bounded staleness (spec.md section 4.2). Grounded on the teacher's
// internal/auth/session_store.go (Redis-backed, key format "session:%s",
// graceful no-op when disabled) and internal/cache/cache.go for the
// underlying Redis primitives.
package sessionstore

import (
	"context"
	"time"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
)

// SessionStore is the contract C7/C8 depend on.
type SessionStore interface {
	// Get returns the target URL pinned to sessionID, or ok=false on miss.
	Get(ctx context.Context, sessionID string) (targetURL string, ok bool, err error)
	// Set records sessionID -> targetURL. Last-writer-wins; a session id is
	// assumed globally unique so concurrent Sets for the same id are rare
	// and need no additional coordination (spec.md section 4.2).
	Set(ctx context.Context, sessionID, targetURL string) error
}

const keyPrefix = "session:"

// RedisSessionStore backs sessionStore.kind=distributed-cache; the
// in-memory kind is handled by MemorySessionStore instead.
type RedisSessionStore struct {
	backend redisLike
	ttl     time.Duration
}

// redisLike is the minimal surface RedisSessionStore needs; satisfied by
// Client in redisclient.go.
type redisLike interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// NewRedisSessionStore wraps a redis-backed client with the session TTL.
func NewRedisSessionStore(backend redisLike, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{backend: backend, ttl: ttl}
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (string, bool, error) {
	val, ok, err := s.backend.Get(ctx, keyPrefix+sessionID)
	if err != nil {
		return "", false, apperr.BackendUnavailable(err)
	}
	return val, ok, nil
}

func (s *RedisSessionStore) Set(ctx context.Context, sessionID, targetURL string) error {
	if err := s.backend.Set(ctx, keyPrefix+sessionID, targetURL, s.ttl); err != nil {
		return apperr.BackendUnavailable(err)
	}
	return nil
}
