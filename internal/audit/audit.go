// Package audit implements async audit logging for adapter/tool lifecycle
// mutations, adapted from the teacher's internal/middleware/auditlog.go:
// same async-goroutine write strategy, same recursive sensitive-field
// redaction, repointed at this gateway's record-mutation events instead of
// generic HTTP request/response bodies.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/streamspace-dev/mcp-gateway/internal/logger"
)

// Event is one adapter/tool lifecycle mutation.
type Event struct {
	Timestamp    time.Time              `json:"timestamp"`
	UserID       string                 `json:"user_id"`
	Action       string                 `json:"action"` // create | update | delete
	ResourceType string                 `json:"resource_type"` // adapter | tool
	ResourceName string                 `json:"resource_name"`
	Changes      map[string]interface{} `json:"changes,omitempty"`
}

var sensitiveFields = []string{"password", "token", "secret", "apiKey", "api_key"}

// Logger persists Events to Postgres asynchronously. A nil *sql.DB makes it
// a no-op, the same graceful-degradation behavior the teacher's
// AuditLogger has when its database field is nil.
type Logger struct {
	db *sql.DB
}

// New constructs an audit Logger and ensures its backing table exists. db
// may be nil to disable logging entirely (e.g. when resourceStore.kind is
// not document-db).
func New(db *sql.DB) *Logger {
	if db != nil {
		const schema = `
			CREATE TABLE IF NOT EXISTS audit_log (
				id            SERIAL PRIMARY KEY,
				user_id       VARCHAR(255),
				action        VARCHAR(100),
				resource_type VARCHAR(100),
				resource_id   VARCHAR(255),
				changes       JSONB,
				timestamp     TIMESTAMPTZ
			)`
		if _, err := db.Exec(schema); err != nil {
			logger.Audit().Warn().Err(err).Msg("failed to ensure audit_log schema, disabling audit logging")
			db = nil
		}
	}
	return &Logger{db: db}
}

// Record logs event asynchronously; it never blocks the caller and never
// returns an error (failures are logged, not surfaced, matching the
// teacher's rationale: audit logging must not break the platform).
func (l *Logger) Record(event Event) {
	if l == nil || l.db == nil {
		return
	}
	event.Changes = redact(event.Changes)
	go l.write(event)
}

func (l *Logger) write(event Event) {
	details, err := json.Marshal(event.Changes)
	if err != nil {
		logger.Audit().Warn().Err(err).Msg("failed to marshal audit event details")
		return
	}

	const q = `
		INSERT INTO audit_log (user_id, action, resource_type, resource_id, changes, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := l.db.ExecContext(ctx, q, event.UserID, event.Action, event.ResourceType, event.ResourceName, details, event.Timestamp); err != nil {
		logger.Audit().Warn().Err(err).Msg("failed to write audit log entry")
	}
}

func redact(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if isSensitive(k) {
			out[k] = "[REDACTED]"
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			out[k] = redact(nested)
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitive(key string) bool {
	for _, f := range sensitiveFields {
		if key == f {
			return true
		}
	}
	return false
}
