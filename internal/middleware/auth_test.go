package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/config"
	"github.com/streamspace-dev/mcp-gateway/internal/identity"
)

type fakeVerifier struct {
	principal identity.Principal
	err       error
}

func (f fakeVerifier) Verify(_ context.Context, _ string) (identity.Principal, error) {
	return f.principal, f.err
}

func runAuthenticate(t *testing.T, cfg config.Config, verifier TokenVerifier, setupReq func(*httptest.ResponseRecorder) *httptest.ResponseRecorder, headers map[string]string) (*httptest.ResponseRecorder, identity.Principal, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	var captured identity.Principal
	var ok bool
	engine.Use(apperr.ErrorHandler())
	engine.Use(Authenticate(cfg, verifier))
	engine.GET("/", func(c *gin.Context) {
		captured, ok = identity.FromContext(c)
		c.Status(200)
	})

	req := httptest.NewRequest("GET", "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w, captured, ok
}

func TestAuthenticateDevModeSynthesizesPrincipal(t *testing.T) {
	cfg := config.Config{Development: config.DevelopmentConfig{Mode: true}}
	headers := map[string]string{
		identity.HeaderDevUserID: "alice",
		identity.HeaderDevName:   "Alice",
		identity.HeaderDevRoles:  "team-x,mcp.admin",
	}

	w, principal, ok := runAuthenticate(t, cfg, fakeVerifier{}, nil, headers)
	assert.Equal(t, 200, w.Code)
	assert.True(t, ok)
	assert.Equal(t, "alice", principal.UserID)
	assert.ElementsMatch(t, []string{"team-x", "mcp.admin"}, principal.Roles)
}

func TestAuthenticateDevModeFallsThroughToBearerWithoutDevHeader(t *testing.T) {
	cfg := config.Config{Development: config.DevelopmentConfig{Mode: true}}
	verifier := fakeVerifier{principal: identity.Principal{UserID: "bob"}}
	headers := map[string]string{"Authorization": "Bearer good-token"}

	w, principal, ok := runAuthenticate(t, cfg, verifier, nil, headers)
	assert.Equal(t, 200, w.Code)
	assert.True(t, ok)
	assert.Equal(t, "bob", principal.UserID)
}

func TestAuthenticateRejectsMissingBearerPrefix(t *testing.T) {
	cfg := config.Config{}
	w, _, _ := runAuthenticate(t, cfg, fakeVerifier{}, nil, map[string]string{"Authorization": "Basic xyz"})
	assert.Equal(t, 401, w.Code)
}

func TestAuthenticateRejectsVerifierError(t *testing.T) {
	cfg := config.Config{}
	verifier := fakeVerifier{err: apperr.Unauthorized("bad token")}
	w, _, _ := runAuthenticate(t, cfg, verifier, nil, map[string]string{"Authorization": "Bearer bad-token"})
	assert.Equal(t, 401, w.Code)
}

func TestAuthenticateAcceptsValidBearerToken(t *testing.T) {
	cfg := config.Config{}
	verifier := fakeVerifier{principal: identity.Principal{UserID: "carol", Roles: []string{"team-x"}}}
	w, principal, ok := runAuthenticate(t, cfg, verifier, nil, map[string]string{"Authorization": "Bearer good-token"})
	assert.Equal(t, 200, w.Code)
	assert.True(t, ok)
	assert.Equal(t, "carol", principal.UserID)
}

func TestParseUnverifiedRolesExtractsRolesClaim(t *testing.T) {
	// header.payload.signature with payload {"roles":["team-x","mcp.admin"]}
	token := "eyJhbGciOiJIUzI1NiJ9.eyJyb2xlcyI6WyJ0ZWFtLXgiLCJtY3AuYWRtaW4iXX0.sig"
	roles := ParseUnverifiedRoles(token)
	assert.ElementsMatch(t, []string{"team-x", "mcp.admin"}, roles)
}

func TestParseUnverifiedRolesReturnsNilOnGarbage(t *testing.T) {
	assert.Nil(t, ParseUnverifiedRoles("not-a-jwt"))
}
