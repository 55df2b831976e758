package sessionstore

import (
	"fmt"
	"net/url"
	"time"

	"github.com/streamspace-dev/mcp-gateway/internal/config"
)

// NewFromConfig selects the session-store backend named by cfg.Kind.
func NewFromConfig(cfg config.SessionStoreConfig) (SessionStore, func() error, error) {
	ttl := time.Duration(cfg.TTL) * time.Second
	switch cfg.Kind {
	case "", "in-memory":
		return NewMemorySessionStore(ttl), func() error { return nil }, nil
	case "distributed-cache":
		addr, password, db, err := parseRedisURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		client, err := NewClient(addr, password, db)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisSessionStore(client, ttl), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown sessionStore.kind %q", cfg.Kind)
	}
}

func parseRedisURL(raw string) (addr, password string, db int, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", 0, fmt.Errorf("parse redis url: %w", err)
	}
	addr = u.Host
	if pw, ok := u.User.Password(); ok {
		password = pw
	}
	if len(u.Path) > 1 {
		fmt.Sscanf(u.Path[1:], "%d", &db)
	}
	return addr, password, db, nil
}
