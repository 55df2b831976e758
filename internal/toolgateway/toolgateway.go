// Package toolgateway implements C9, the Tool-Gateway Router: an MCP
// server that aggregates every visible tool definition and dispatches
// tools/call to the owning tool's backend (spec.md section 4.9).
//
// Its two handlers list-tools and call-tool are per-principal:
// mark3labs/mcp-go's MCPServer registers one global tool set shared by
// every transport connection, which cannot express "caller A sees tools
// {x,y}, caller B sees {y,z}" (spec.md section 4.3's read-permission
// filter). This package therefore dispatches JSON-RPC requests itself,
// reusing mcp-go's mcp package only for its wire-compatible Tool,
// CallToolResult, and TextContent shapes (grounded on
// theRebelliousNerd-browserNerd/mcp-server/internal/mcp/server.go's use of
// those same types).
package toolgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/identity"
	"github.com/streamspace-dev/mcp-gateway/internal/logger"
	"github.com/streamspace-dev/mcp-gateway/internal/model"
)

// listCacheTTL is the short TTL for the raw (pre-permission-filter) tool
// list cache (spec.md section 4.9, "~5 minutes").
const listCacheTTL = 5 * time.Minute

// ToolLister is the narrow view of C6's ToolService the router depends on.
type ToolLister interface {
	List(ctx context.Context, principal identity.Principal) ([]model.ToolRecord, error)
	Get(ctx context.Context, principal identity.Principal, name string) (model.ToolRecord, error)
}

// Router is the tool-gateway MCP server.
type Router struct {
	tools     ToolLister
	namespace string
	client    *http.Client

	mu        sync.Mutex
	rawCache  []model.ToolRecord
	expiresAt time.Time
}

// New constructs a Tool-Gateway Router scoped to namespace (used to build
// the in-cluster backend URL for call-tool).
func New(tools ToolLister, namespace string) *Router {
	return &Router{
		tools:     tools,
		namespace: namespace,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// rawList returns every tool record, admin-privileged, refreshing the
// cache when stale. Per-request permission filtering is applied by the
// caller on top of this raw snapshot (spec.md section 4.9).
func (r *Router) rawList(ctx context.Context) ([]model.ToolRecord, error) {
	r.mu.Lock()
	if time.Now().Before(r.expiresAt) {
		cached := r.rawCache
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	admin := identity.Principal{UserID: "toolgateway", Roles: []string{identity.AdminRole}}
	all, err := r.tools.List(ctx, admin)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.rawCache = all
	r.expiresAt = time.Now().Add(listCacheTTL)
	r.mu.Unlock()
	return all, nil
}

// ListTools enumerates the tools principal may Read (spec.md section 4.9
// list-tools).
func (r *Router) ListTools(ctx context.Context, principal identity.Principal) ([]mcp.Tool, error) {
	all, err := r.rawList(ctx)
	if err != nil {
		return nil, err
	}

	visible, err := r.tools.List(ctx, principal)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(visible))
	for _, t := range visible {
		names[t.Name] = struct{}{}
	}

	out := make([]mcp.Tool, 0, len(names))
	for _, record := range all {
		if _, ok := names[record.Name]; !ok {
			continue
		}
		schema, err := json.Marshal(record.ToolDefinition.Tool.InputSchema)
		if err != nil {
			schema = []byte(`{"type":"object"}`)
		}
		out = append(out, mcp.NewToolWithRawSchema(record.ToolDefinition.Tool.Name, record.ToolDefinition.Tool.Description, schema))
	}
	return out, nil
}

// CallTool resolves name, Read-checks it, and forwards args to the tool's
// backend, mapping every failure into an IsError CallToolResult rather
// than a thrown Go error (spec.md section 4.9 call-tool).
func (r *Router) CallTool(ctx context.Context, principal identity.Principal, name string, args map[string]interface{}) *mcp.CallToolResult {
	record, err := r.tools.Get(ctx, principal, name)
	if err != nil {
		if ae, ok := apperr.As(err); ok {
			switch ae.Code {
			case apperr.CodeNotFound:
				return errorResult(fmt.Sprintf("Error: Tool '%s' not found", name))
			case apperr.CodeForbidden:
				return errorResult("Error: You do not have permission to call this tool")
			}
		}
		return errorResult(fmt.Sprintf("Error: Failed to resolve tool '%s': %v", name, err))
	}

	td := record.ToolDefinition.Normalized()
	url := fmt.Sprintf("http://%s-service.%s.svc.cluster.local:%d%s", name, r.namespace, td.Port, td.Path)

	body, err := json.Marshal(args)
	if err != nil {
		return errorResult(fmt.Sprintf("Error: Failed to encode arguments: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errorResult(fmt.Sprintf("Error: Failed to connect to tool '%s': %v", name, err))
	}
	req.Header.Set("Content-Type", "application/json")
	identity.ForwardHeaders(req.Header.Set, principal)

	resp, err := r.client.Do(req)
	if err != nil {
		logger.ToolGateway().Warn().Err(err).Str("tool", name).Msg("tool backend unreachable")
		return errorResult(fmt.Sprintf("Error: Failed to connect to tool '%s': %v", name, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResult(fmt.Sprintf("Error: Failed to read response from tool '%s': %v", name, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorResult(fmt.Sprintf("Error: Inference server returned %d", resp.StatusCode))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(respBody))},
		IsError: false,
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(message)},
		IsError: true,
	}
}
