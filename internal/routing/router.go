// Package routing implements C7, the Session Routing Handler: deciding the
// backend for a new or existing MCP session (spec.md section 4.7).
package routing

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/model"
	"github.com/streamspace-dev/mcp-gateway/internal/sessionstore"
)

// NodeInfo is the narrow view of C4 the router depends on.
type NodeInfo interface {
	ResolveEndpoints(ctx context.Context, workloadName string) ([]model.ReplicaEndpoint, error)
}

// Handler implements the session routing decision.
type Handler struct {
	nodeInfo NodeInfo
	sessions sessionstore.SessionStore

	mu         sync.Mutex
	roundRobin map[string]*uint64
}

// New constructs a Session Routing Handler.
func New(nodeInfo NodeInfo, sessions sessionstore.SessionStore) *Handler {
	return &Handler{nodeInfo: nodeInfo, sessions: sessions, roundRobin: make(map[string]*uint64)}
}

// Route resolves the backend target URL for an incoming request.
// sessionID is the opaque streamable-HTTP session header value, or "" when
// absent (spec.md section 4.7).
func (h *Handler) Route(ctx context.Context, workloadName, sessionID string) (targetURL string, isNewSession bool, err error) {
	if sessionID != "" {
		target, ok, err := h.sessions.Get(ctx, sessionID)
		if err != nil {
			return "", false, err
		}
		if !ok {
			return "", false, apperr.ServiceUnavailable("session not found; client must re-initialize")
		}
		return target, false, nil
	}

	endpoints, err := h.nodeInfo.ResolveEndpoints(ctx, workloadName)
	if err != nil {
		return "", true, apperr.ServiceUnavailable("no backend endpoints available for " + workloadName)
	}
	if len(endpoints) == 0 {
		return "", true, apperr.ServiceUnavailable("no backend endpoints available for " + workloadName)
	}

	idx := h.nextIndex(workloadName, len(endpoints))
	return endpoints[idx].Address, true, nil
}

// BindSession records sessionID -> targetURL after a new session's first
// proxied response carries a session-initialization header (spec.md
// section 4.7, invariant 8). This is the only write path to the session
// store.
func (h *Handler) BindSession(ctx context.Context, sessionID, targetURL string) error {
	return h.sessions.Set(ctx, sessionID, targetURL)
}

// nextIndex is a deterministic round-robin dispatch per workload name, per
// spec.md section 4.7 ("e.g., round-robin by local counter").
func (h *Handler) nextIndex(workloadName string, n int) int {
	h.mu.Lock()
	counter, ok := h.roundRobin[workloadName]
	if !ok {
		var c uint64
		counter = &c
		h.roundRobin[workloadName] = counter
	}
	h.mu.Unlock()

	next := atomic.AddUint64(counter, 1)
	return int(next % uint64(n))
}
