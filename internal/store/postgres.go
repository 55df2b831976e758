package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// PostgresStore is the document-db Store backend (resourceStore.kind=document-db),
// grounded on the teacher's internal/db/applications.go (raw SQL via
// lib/pq, dynamic upsert, JSON payload column) and internal/db/database.go
// (connection setup, config validation).
//
// Schema:
//
//	CREATE TABLE IF NOT EXISTS gateway_records (
//	    key        TEXT PRIMARY KEY,
//	    data       JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool to dsn and ensures the backing
// table exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS gateway_records (
			key        TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}

// DB exposes the raw *sql.DB so other components (the audit logger) can
// share the same connection pool rather than opening a second one.
func (p *PostgresStore) DB() *sql.DB {
	return p.db
}

func (p *PostgresStore) TryGet(ctx context.Context, key string) ([]byte, bool, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx, `SELECT data FROM gateway_records WHERE key = $1`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select key %s: %w", key, err)
	}
	return raw, true, nil
}

func (p *PostgresStore) Upsert(ctx context.Context, key string, raw []byte) error {
	const q = `
		INSERT INTO gateway_records (key, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`
	if _, err := p.db.ExecContext(ctx, q, key, raw); err != nil {
		return fmt.Errorf("upsert key %s: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM gateway_records WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete key %s: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, prefix string) ([][]byte, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT data FROM gateway_records WHERE key LIKE $1`, strings.ReplaceAll(prefix, "%", "\\%")+"%")
	if err != nil {
		return nil, fmt.Errorf("list prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		out = append(out, raw)
	}
	return out, rows.Err()
}
