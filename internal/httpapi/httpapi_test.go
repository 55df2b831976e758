package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/audit"
	"github.com/streamspace-dev/mcp-gateway/internal/deploy"
	"github.com/streamspace-dev/mcp-gateway/internal/identity"
	"github.com/streamspace-dev/mcp-gateway/internal/model"
	"github.com/streamspace-dev/mcp-gateway/internal/permissions"
	"github.com/streamspace-dev/mcp-gateway/internal/resources"
	"github.com/streamspace-dev/mcp-gateway/internal/routing"
	"github.com/streamspace-dev/mcp-gateway/internal/sessionstore"
	"github.com/streamspace-dev/mcp-gateway/internal/store"
)

type fakeNodeInfo struct {
	address string
}

func (f *fakeNodeInfo) ResolveEndpoints(_ context.Context, workloadName string) ([]model.ReplicaEndpoint, error) {
	return []model.ReplicaEndpoint{{WorkloadName: workloadName, Ordinal: 0, Address: f.address}}, nil
}

func principalMiddleware(p identity.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity.Set(c, p)
		c.Next()
	}
}

func newTestServer(t *testing.T, backendAddr string) *Server {
	t.Helper()
	backend := store.NewMemoryStore()
	perm := permissions.New()
	deployer := deploy.New(fake.NewSimpleClientset(), "default", "registry.internal")
	adapters := resources.NewAdapterService(backend, perm, deployer, audit.New(nil))
	tools := resources.NewToolService(backend, perm, deployer, audit.New(nil))

	nodeInfo := &fakeNodeInfo{address: backendAddr}
	sessions := sessionstore.NewMemorySessionStore(time.Hour)
	router := routing.New(nodeInfo, sessions)

	return NewServer(adapters, tools, router, "toolgateway")
}

func engineWithPrincipal(server *Server, p identity.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(apperr.ErrorHandler())
	engine.Use(principalMiddleware(p))
	server.Register(engine)
	return engine
}

func TestCreateGetListAdapterLifecycle(t *testing.T) {
	server := newTestServer(t, "http://unused")
	owner := identity.Principal{UserID: "alice"}
	engine := engineWithPrincipal(server, owner)

	body, _ := json.Marshal(map[string]interface{}{
		"name": "search", "imageName": "mcp/search", "imageVersion": "v1", "replicaCount": 1,
	})
	req := httptest.NewRequest("POST", "/adapters", bytes.NewReader(body))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest("GET", "/adapters/search", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/adapters", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	var list []model.AdapterRecord
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestGetAdapterNotFoundReturns404(t *testing.T) {
	server := newTestServer(t, "http://unused")
	engine := engineWithPrincipal(server, identity.Principal{UserID: "alice"})

	req := httptest.NewRequest("GET", "/adapters/missing", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdapterProxyRouteForwardsToBackend(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mcp", r.URL.Path)
		assert.Equal(t, "alice", r.Header.Get(identity.HeaderUserID))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer upstream.Close()

	server := newTestServer(t, upstream.URL)
	owner := identity.Principal{UserID: "alice"}
	engine := engineWithPrincipal(server, owner)

	createBody, _ := json.Marshal(map[string]interface{}{
		"name": "search", "imageName": "mcp/search", "imageVersion": "v1", "replicaCount": 1,
	})
	req := httptest.NewRequest("POST", "/adapters", bytes.NewReader(createBody))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest("GET", "/adapters/search/mcp", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestToolProxyRouteForwardsToBackend(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mcp", r.URL.Path)
		assert.Equal(t, "alice", r.Header.Get(identity.HeaderUserID))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer upstream.Close()

	server := newTestServer(t, upstream.URL)
	owner := identity.Principal{UserID: "alice"}
	engine := engineWithPrincipal(server, owner)

	createBody, _ := json.Marshal(map[string]interface{}{
		"name": "weather", "imageName": "mcp/weather", "imageVersion": "v1", "replicaCount": 1,
		"toolDefinition": map[string]interface{}{"tool": map[string]interface{}{"name": "weather"}},
	})
	req := httptest.NewRequest("POST", "/tools", bytes.NewReader(createBody))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest("GET", "/tools/weather/mcp", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestToolProxyDeniesUnreadableTool(t *testing.T) {
	server := newTestServer(t, "http://unused")
	owner := identity.Principal{UserID: "alice"}
	engineOwner := engineWithPrincipal(server, owner)

	createBody, _ := json.Marshal(map[string]interface{}{
		"name": "weather", "imageName": "mcp/weather", "imageVersion": "v1", "replicaCount": 1,
		"requiredRoles":  []string{"team-z"},
		"toolDefinition": map[string]interface{}{"tool": map[string]interface{}{"name": "weather"}},
	})
	req := httptest.NewRequest("POST", "/tools", bytes.NewReader(createBody))
	w := httptest.NewRecorder()
	engineOwner.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	stranger := identity.Principal{UserID: "mallory"}
	engineStranger := engineWithPrincipal(server, stranger)
	req = httptest.NewRequest("GET", "/tools/weather/mcp", nil)
	w = httptest.NewRecorder()
	engineStranger.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdapterProxyDeniesUnreadableAdapter(t *testing.T) {
	server := newTestServer(t, "http://unused")
	owner := identity.Principal{UserID: "alice"}
	engineOwner := engineWithPrincipal(server, owner)

	createBody, _ := json.Marshal(map[string]interface{}{
		"name": "search", "imageName": "mcp/search", "imageVersion": "v1", "replicaCount": 1,
		"requiredRoles": []string{"team-z"},
	})
	req := httptest.NewRequest("POST", "/adapters", bytes.NewReader(createBody))
	w := httptest.NewRecorder()
	engineOwner.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	stranger := identity.Principal{UserID: "mallory"}
	engineStranger := engineWithPrincipal(server, stranger)
	req = httptest.NewRequest("GET", "/adapters/search/mcp", nil)
	w = httptest.NewRecorder()
	engineStranger.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBareToolGatewayProxyRequiresPrincipal(t *testing.T) {
	server := newTestServer(t, "http://unused")
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(apperr.ErrorHandler())
	server.Register(engine)

	req := httptest.NewRequest("GET", "/mcp", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
