package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/identity"
	"github.com/streamspace-dev/mcp-gateway/internal/logger"
	"github.com/streamspace-dev/mcp-gateway/internal/proxy"
	"github.com/streamspace-dev/mcp-gateway/internal/routing"
)

// MCPProxyHandler binds the C8 Reverse Proxy to one family of records
// (adapters or the fixed tool-gateway workload), resolving a backend via
// the C7 Session Routing Handler and re-emitting the permission check
// spec.md section 4.8 requires before any bytes are forwarded.
type MCPProxyHandler struct {
	Router *routing.Handler

	// checkReadable resolves name under principal's Read permission,
	// returning the backing workload name (spec.md section 4.8 step 1-2).
	// For adapters/tools this is the record name itself; it fails with
	// NotFound/Forbidden exactly as resources.Service.Get does.
	checkReadable func(c *gin.Context, name string) (workloadName string, err error)

	// fixedWorkload, when non-empty, routes every request to this workload
	// name regardless of path (the bare "/mcp" tool-gateway entry point,
	// spec.md section 6.1) and skips the per-name permission check — the
	// tool-gateway router performs its own per-tool authorization (C9).
	fixedWorkload string
}

// NewAdapterProxyHandler builds the proxy entry point mounted at
// "/adapters/:name/mcp".
func NewAdapterProxyHandler(router *routing.Handler, checkReadable func(c *gin.Context, name string) (string, error)) *MCPProxyHandler {
	return &MCPProxyHandler{Router: router, checkReadable: checkReadable}
}

// NewToolGatewayProxyHandler builds the proxy entry point mounted at the
// bare "/mcp" path, always targeting fixedWorkload (spec.md section 6.1,
// "a single, fixed-name tool-gateway workload").
func NewToolGatewayProxyHandler(router *routing.Handler, fixedWorkload string) *MCPProxyHandler {
	return &MCPProxyHandler{Router: router, fixedWorkload: fixedWorkload}
}

// ServeAdapter handles "/adapters/:name/mcp" and "/tools/:name/mcp".
func (h *MCPProxyHandler) ServeAdapter(c *gin.Context) {
	name := c.Param("name")
	workloadName, err := h.checkReadable(c, name)
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}
	h.serve(c, workloadName)
}

// ServeToolGateway handles the bare "/mcp" entry point.
func (h *MCPProxyHandler) ServeToolGateway(c *gin.Context) {
	if _, ok := principalOrAbort(c); !ok {
		return
	}
	h.serve(c, h.fixedWorkload)
}

func (h *MCPProxyHandler) serve(c *gin.Context, workloadName string) {
	ctx := c.Request.Context()
	sessionID := c.GetHeader(proxy.SessionHeader)

	targetURL, isNewSession, err := h.Router.Route(ctx, workloadName, sessionID)
	if err != nil {
		apperr.AbortWithError(c, err)
		return
	}

	if principal, ok := identity.FromContext(c); ok {
		identity.ForwardHeaders(c.Request.Header.Set, principal)
	}

	rewritten := proxy.RewriteTargetPath(c.Request.URL.Path)
	rp, err := proxy.New(targetURL, rewritten)
	if err != nil {
		apperr.AbortWithError(c, apperr.UpstreamFailed(err))
		return
	}

	if isNewSession {
		rp.ModifyResponse = func(resp *http.Response) error {
			if sid := resp.Header.Get(proxy.SessionHeader); sid != "" {
				if err := h.Router.BindSession(resp.Request.Context(), sid, targetURL); err != nil {
					logger.Proxy().Warn().Err(err).Str("sessionId", sid).Msg("failed to bind new session")
				}
			}
			return nil
		}
	}

	rp.ServeHTTP(c.Writer, c.Request)
}
