package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the distributed-cache Store backend
// (resourceStore.kind=distributed-cache), grounded on the teacher's
// internal/cache/cache.go connection-pool configuration and
// internal/auth/session_store.go's use of Redis as a durable keyed map.
//
// Listing is implemented via SCAN over the key prefix followed by
// per-key GET; a key observed by SCAN but gone by the time it is fetched
// (e.g. concurrently deleted) is silently dropped, matching spec.md
// section 4.1's tolerance for a name-index entry with no backing record.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore dials addr with the same pool/timeout/retry settings the
// teacher's cache.NewCache uses.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:        25,
		MinIdleConns:    5,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// Close releases the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) TryGet(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get key %s: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisStore) Upsert(ctx context.Context, key string, raw []byte) error {
	if err := r.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("set key %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete key %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) List(ctx context.Context, prefix string) ([][]byte, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan prefix %s: %w", prefix, err)
	}

	out := make([][]byte, 0, len(keys))
	for _, k := range keys {
		val, err := r.client.Get(ctx, k).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get key %s: %w", k, err)
		}
		out = append(out, val)
	}
	return out, nil
}
