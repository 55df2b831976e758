package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/identity"
	"github.com/streamspace-dev/mcp-gateway/internal/resources"
	"github.com/streamspace-dev/mcp-gateway/internal/routing"
)

// NewServer wires the C6 resource services, the C7 routing handler, and the
// fixed tool-gateway workload name into a Server ready to Register its
// routes (spec.md section 6.1).
func NewServer(adapters *resources.AdapterService, tools *resources.ToolService, router *routing.Handler, toolGatewayWorkload string) *Server {
	checkAdapterReadable := func(c *gin.Context, name string) (string, error) {
		principal, ok := identity.FromContext(c)
		if !ok {
			return "", apperr.Unauthorized("no authenticated principal")
		}
		record, err := adapters.Get(c.Request.Context(), principal, name)
		if err != nil {
			return "", err
		}
		return record.Name, nil
	}

	checkToolReadable := func(c *gin.Context, name string) (string, error) {
		principal, ok := identity.FromContext(c)
		if !ok {
			return "", apperr.Unauthorized("no authenticated principal")
		}
		record, err := tools.Get(c.Request.Context(), principal, name)
		if err != nil {
			return "", err
		}
		return record.Name, nil
	}

	return &Server{
		Adapters:          adapters,
		Tools:             tools,
		AdapterProxy:      NewAdapterProxyHandler(router, checkAdapterReadable),
		ToolInstanceProxy: NewAdapterProxyHandler(router, checkToolReadable),
		ToolProxy:         NewToolGatewayProxyHandler(router, toolGatewayWorkload),
	}
}
