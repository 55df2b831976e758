// Package httpapi wires the HTTP surface described in spec.md section 6.1
// onto the C6 Resource Services, C7 Session Routing Handler, and C8 Reverse
// Proxy, following the teacher's handler-per-route Gin registration style.
package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/identity"
	"github.com/streamspace-dev/mcp-gateway/internal/resources"
)

// Server bundles everything the HTTP surface needs.
type Server struct {
	Adapters     *resources.AdapterService
	Tools        *resources.ToolService
	AdapterProxy *MCPProxyHandler
	// ToolInstanceProxy serves "/tools/:name/mcp", mirroring AdapterProxy
	// for the tools group (spec.md section 6.1, "/tools mirrors /adapters").
	ToolInstanceProxy *MCPProxyHandler
	ToolProxy         *MCPProxyHandler
}

// Register mounts every route in spec.md section 6.1 onto r.
func (s *Server) Register(r gin.IRouter) {
	adapters := r.Group("/adapters")
	{
		adapters.POST("", s.createAdapter)
		adapters.GET("", s.listAdapters)
		adapters.GET("/:name", s.getAdapter)
		adapters.PUT("/:name", s.updateAdapter)
		adapters.DELETE("/:name", s.deleteAdapter)
		adapters.GET("/:name/status", s.adapterStatus)
		adapters.GET("/:name/logs", s.adapterLogs)
		adapters.Any("/:name/mcp", s.AdapterProxy.ServeAdapter)
	}

	tools := r.Group("/tools")
	{
		tools.POST("", s.createTool)
		tools.GET("", s.listTools)
		tools.GET("/:name", s.getTool)
		tools.PUT("/:name", s.updateTool)
		tools.DELETE("/:name", s.deleteTool)
		tools.GET("/:name/status", s.toolStatus)
		tools.GET("/:name/logs", s.toolLogs)
		tools.Any("/:name/mcp", s.ToolInstanceProxy.ServeAdapter)
	}

	r.Any("/mcp", s.ToolProxy.ServeToolGateway)
}

func principalOrAbort(c *gin.Context) (identity.Principal, bool) {
	p, ok := identity.FromContext(c)
	if !ok {
		apperr.AbortWithError(c, apperr.Unauthorized("no authenticated principal"))
		return identity.Principal{}, false
	}
	return p, true
}

func logOrdinal(c *gin.Context) (int, error) {
	raw := c.Query("instance")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.ValidationFailed("instance must be an integer replica ordinal")
	}
	return n, nil
}

func writeJSON(c *gin.Context, status int, body interface{}) {
	c.JSON(status, body)
}
