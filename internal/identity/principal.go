// Package identity implements C10 Identity Forwarding: propagating an
// authenticated principal across internal hops via well-known headers, and
// the X-Dev-* header names that internal/middleware.Authenticate reads in
// development mode (spec.md sections 4.10, 6.3, and 9).
package identity

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Header names used to forward an authenticated principal between internal
// services (spec.md section 4.10). Untrusted clients must never be allowed
// to set these directly; StripInboundHeaders removes them at the edge.
const (
	HeaderUserID = "X-Mcp-UserId"
	HeaderUserName = "X-Mcp-UserName"
	HeaderRoles  = "X-Mcp-Roles"
)

// Dev-mode header names (spec.md section 6.3), consulted only when
// development.mode is enabled.
const (
	HeaderDevUserID = "X-Dev-UserId"
	HeaderDevName   = "X-Dev-Name"
	HeaderDevRoles  = "X-Dev-Roles"
)

const contextKey = "mcp.principal"

// Principal is an authenticated caller: a user id and a set of role values.
type Principal struct {
	UserID string
	Name   string
	Roles  []string
}

// HasRole reports whether the principal holds the given role, matched
// case-insensitively.
func (p Principal) HasRole(role string) bool {
	role = strings.ToLower(role)
	for _, r := range p.Roles {
		if strings.ToLower(r) == role {
			return true
		}
	}
	return false
}

// AdminRole is the distinguished role value granting universal read/write
// (spec.md section 4.3).
const AdminRole = "mcp.admin"

// IsAdmin reports whether the principal holds the distinguished admin role.
func (p Principal) IsAdmin() bool {
	return p.HasRole(AdminRole)
}

// StripInboundHeaders removes the identity-forwarding headers from an
// inbound request before any identity-provider or dev-mode middleware runs,
// so only intra-cluster hops (which run after this middleware, never before
// it) can supply them.
func StripInboundHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Header.Del(HeaderUserID)
		c.Request.Header.Del(HeaderUserName)
		c.Request.Header.Del(HeaderRoles)
		c.Next()
	}
}

// Set stores the resolved principal on the Gin context for downstream handlers.
func Set(c *gin.Context, p Principal) {
	c.Set(contextKey, p)
}

// FromContext retrieves the principal set earlier in the middleware chain.
// ok is false if no principal has been established (unauthenticated request).
func FromContext(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// ForwardHeaders sets the well-known identity headers on an outbound request
// so a downstream internal service (e.g. the tool-gateway router) can
// reconstruct the principal without its own identity-provider handshake.
func ForwardHeaders(setHeader func(key, value string), p Principal) {
	setHeader(HeaderUserID, p.UserID)
	setHeader(HeaderUserName, p.Name)
	setHeader(HeaderRoles, strings.Join(p.Roles, ","))
}

// RequireForwardedPrincipal reconstructs a Principal from the well-known
// forwarding headers and rejects the request if absent. Intended for
// internal-only services (the tool-gateway router) that trust their
// network boundary instead of running their own identity-provider
// handshake (spec.md section 4.10).
func RequireForwardedPrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := FromForwardedHeaders(c.GetHeader)
		if !ok {
			c.AbortWithStatusJSON(401, gin.H{"error": gin.H{"code": "UNAUTHORIZED", "message": "missing forwarded principal headers"}})
			return
		}
		Set(c, p)
		c.Next()
	}
}

// FromForwardedHeaders reconstructs a Principal from the well-known headers,
// used by a receiver that trusts its caller is an internal hop.
func FromForwardedHeaders(getHeader func(key string) string) (Principal, bool) {
	userID := getHeader(HeaderUserID)
	if userID == "" {
		return Principal{}, false
	}
	var roles []string
	if raw := getHeader(HeaderRoles); raw != "" {
		for _, r := range strings.Split(raw, ",") {
			r = strings.TrimSpace(r)
			if r != "" {
				roles = append(roles, r)
			}
		}
	}
	return Principal{
		UserID: userID,
		Name:   getHeader(HeaderUserName),
		Roles:  roles,
	}, true
}
