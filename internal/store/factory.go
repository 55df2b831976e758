package store

import (
	"fmt"
	"net/url"

	"github.com/streamspace-dev/mcp-gateway/internal/config"
)

// NewFromConfig selects and constructs the Store backend named by
// cfg.Kind ("in-memory", "distributed-cache", "document-db"), per
// spec.md section 6.3.
func NewFromConfig(cfg config.ResourceStoreConfig) (Store, error) {
	switch cfg.Kind {
	case "", "in-memory":
		return NewMemoryStore(), nil
	case "distributed-cache":
		addr, password, db, err := parseRedisURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(addr, password, db)
	case "document-db":
		return NewPostgresStore(cfg.PGDSN)
	default:
		return nil, fmt.Errorf("unknown resourceStore.kind %q", cfg.Kind)
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
	db = 0
	if len(u.Path) > 1 {
		fmt.Sscanf(u.Path[1:], "%d", &db)
	}
	return addr, password, db, nil
}
