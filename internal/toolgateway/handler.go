package toolgateway

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/streamspace-dev/mcp-gateway/internal/identity"
	"github.com/streamspace-dev/mcp-gateway/internal/logger"
)

// jsonrpcRequest is the minimal JSON-RPC 2.0 envelope the MCP streamable-HTTP
// transport carries.
type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type callToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Handler exposes Router over the MCP streamable-HTTP transport. mcp-go's
// bundled transports (stdio, SSE) do not cover streamable-HTTP in this
// version of the dependency, so the wire framing is implemented directly
// here; Router's own methods still produce mcp-go's wire-compatible types.
type Handler struct {
	router *Router
}

// NewHandler wraps router for HTTP serving.
func NewHandler(router *Router) *Handler {
	return &Handler{router: router}
}

// Serve handles a single streamable-HTTP POST carrying one JSON-RPC
// request (spec.md section 4.8's streamable-HTTP framing applies equally
// to the tool-gateway router, since it is itself an MCP server).
func (h *Handler) Serve(c *gin.Context) {
	principal, ok := identity.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, jsonrpcResponse{JSONRPC: "2.0", Error: &jsonrpcError{Code: -32001, Message: "unauthorized"}})
		return
	}

	var req jsonrpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, jsonrpcResponse{JSONRPC: "2.0", Error: &jsonrpcError{Code: -32700, Message: "parse error"}})
		return
	}

	sessionID := c.GetHeader("Mcp-Session-Id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	c.Header("Mcp-Session-Id", sessionID)

	ctx := c.Request.Context()
	switch req.Method {
	case "initialize":
		c.JSON(http.StatusOK, jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Result: gin.H{
			"protocolVersion": "2024-11-05",
			"capabilities":    gin.H{"tools": gin.H{"listChanged": false}},
			"serverInfo":      gin.H{"name": "toolgateway", "version": "1.0.0"},
		}})

	case "tools/list":
		tools, err := h.router.ListTools(ctx, principal)
		if err != nil {
			logger.ToolGateway().Warn().Err(err).Msg("list-tools failed")
			c.JSON(http.StatusOK, jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &jsonrpcError{Code: -32000, Message: err.Error()}})
			return
		}
		c.JSON(http.StatusOK, jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Result: gin.H{"tools": tools}})

	case "tools/call":
		var params callToolParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				c.JSON(http.StatusOK, jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &jsonrpcError{Code: -32602, Message: "invalid params"}})
				return
			}
		}
		result := h.router.CallTool(ctx, principal, params.Name, params.Arguments)
		c.JSON(http.StatusOK, jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})

	default:
		c.JSON(http.StatusOK, jsonrpcResponse{JSONRPC: "2.0", ID: req.ID, Error: &jsonrpcError{Code: -32601, Message: "method not found"}})
	}
}
