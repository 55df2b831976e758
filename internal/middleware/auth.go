// Package middleware holds the gateway's cross-cutting Gin middleware:
// authentication entry point, dev-mode principal synthesis, and request
// correlation, grounded on the teacher's internal/auth and
// internal/middleware packages.
package middleware

import (
	"context"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/config"
	"github.com/streamspace-dev/mcp-gateway/internal/identity"
)

// TokenVerifier is the narrow interface the gateway consumes for bearer
// token validation. spec.md section 1 names "the identity-provider token
// validator" as an explicit non-goal external collaborator; this interface
// is the seam at which that collaborator is plugged in.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (identity.Principal, error)
}

// OIDCVerifier adapts a coreos/go-oidc verifier, and its IDToken claim
// extraction, into a TokenVerifier. Construction talks to the issuer's
// discovery document, matching the pattern in the teacher's
// internal/auth/oidc.go.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
	rolesClaim string
}

// NewOIDCVerifier builds a verifier for the configured identity provider.
func NewOIDCVerifier(ctx context.Context, cfg config.IdentityProviderConfig) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, err
	}
	return &OIDCVerifier{
		verifier:   provider.Verifier(&oidc.Config{ClientID: cfg.Audience}),
		rolesClaim: "roles",
	}, nil
}

type oidcClaims struct {
	Subject string   `json:"sub"`
	Name    string   `json:"name"`
	Roles   []string `json:"roles"`
}

// Verify validates rawToken against the configured issuer/audience and
// extracts a Principal from its claims.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (identity.Principal, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return identity.Principal{}, err
	}
	var claims oidcClaims
	if err := idToken.Claims(&claims); err != nil {
		return identity.Principal{}, err
	}
	return identity.Principal{UserID: claims.Subject, Name: claims.Name, Roles: claims.Roles}, nil
}

// ParseUnverifiedRoles reads the roles claim without checking the token's
// signature; it never substitutes for Verify's signature check.
func ParseUnverifiedRoles(rawToken string) []string {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	raw, ok := claims["roles"].([]interface{})
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

// Authenticate resolves the caller's Principal and stores it on the Gin
// context. In development mode (spec.md 6.3/9) it synthesizes a principal
// from X-Dev-* headers instead of calling the verifier. Otherwise a missing
// or invalid bearer token aborts with 401.
func Authenticate(cfg config.Config, verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Development.Mode {
			if devID := c.GetHeader(identity.HeaderDevUserID); devID != "" {
				var roles []string
				if raw := c.GetHeader(identity.HeaderDevRoles); raw != "" {
					for _, r := range strings.Split(raw, ",") {
						r = strings.TrimSpace(r)
						if r != "" {
							roles = append(roles, r)
						}
					}
				}
				identity.Set(c, identity.Principal{
					UserID: devID,
					Name:   c.GetHeader(identity.HeaderDevName),
					Roles:  roles,
				})
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			apperr.AbortWithError(c, apperr.Unauthorized("missing bearer token"))
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		principal, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			apperr.AbortWithError(c, apperr.Unauthorized("invalid bearer token"))
			return
		}

		identity.Set(c, principal)
		c.Next()
	}
}
