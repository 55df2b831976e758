// Package proxy implements C8, the Reverse Proxy: rewriting, forwarding,
// and streaming MCP streamable-HTTP traffic to the chosen backend
// (spec.md section 4.8). Grounded directly on the teacher's
// internal/handlers/selkies_proxy.go: httputil.ReverseProxy with a wrapped
// Director and a custom ErrorHandler mapping connection-refused to 503 and
// anything else to 502.
package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/streamspace-dev/mcp-gateway/internal/logger"
)

// SessionHeader is the MCP streamable-HTTP session header name. Its exact
// identity is governed by the MCP spec and treated as opaque by the
// gateway (spec.md section 9, open question 2); only this one constant
// needs to change if that header name changes.
const SessionHeader = "Mcp-Session-Id"

// hopByHopHeaders are stripped before forwarding, per RFC 7230 section 6.1.
var hopByHopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

// RewriteTargetPath implements spec.md section 4.8 step 3: keep everything
// after the "/adapters/<name>" (or "/tools/<name>") prefix, append a
// trailing slash when the remainder ends in "/messages".
func RewriteTargetPath(requestPath string) string {
	segments := strings.SplitN(strings.TrimPrefix(requestPath, "/"), "/", 3)
	remainder := "/"
	if len(segments) == 3 {
		remainder = "/" + segments[2]
	}
	if strings.HasSuffix(remainder, "/messages") {
		remainder += "/"
	}
	return remainder
}

// New builds a ReverseProxy that forwards to targetBaseURL, rewriting the
// outgoing path to rewrittenPath and preserving the incoming query string.
func New(targetBaseURL, rewrittenPath string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(targetBaseURL)
	if err != nil {
		return nil, err
	}

	rp := httputil.NewSingleHostReverseProxy(target)

	originalDirector := rp.Director
	rp.Director = func(req *http.Request) {
		incomingQuery := req.URL.RawQuery
		originalDirector(req)

		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.URL.Path = rewrittenPath
		req.Host = target.Host
		req.URL.RawQuery = incomingQuery

		for _, h := range hopByHopHeaders {
			req.Header.Del(h)
		}
	}

	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Proxy().Warn().Err(err).Str("target", targetBaseURL).Msg("upstream proxy error")
		if strings.Contains(err.Error(), "connection refused") {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":"SERVICE_UNAVAILABLE","message":"backend unavailable"}}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"code":"UPSTREAM_FAILED","message":"bad gateway"}}`))
	}

	// ResponseHeadersRead makes the body stream instead of buffering it in
	// memory (spec.md section 4.8 step 4 / section 5 streaming requirement).
	// Go's ReverseProxy always streams the body; FlushInterval ensures
	// partial writes are flushed promptly for SSE/chunked MCP responses.
	rp.FlushInterval = -1

	return rp, nil
}
