// Package config loads the gateway's runtime configuration from the
// environment, following the getEnv/getEnvInt helper style used by the
// teacher's cmd/main.go, promoted into a typed struct for the closed set
// of keys spec.md section 6.3 enumerates.
package config

import (
	"os"
	"strconv"
	"strings"
)

// IdentityProviderConfig carries the external token-verifier parameters
// (spec.md 6.3). The verifier itself is an explicit non-goal external
// collaborator; the gateway only threads these values through to it.
type IdentityProviderConfig struct {
	Issuer   string
	Audience string
	TenantID string
	ClientID string
}

// ResourceStoreConfig selects and parameterizes the C1 Resource Store backend.
type ResourceStoreConfig struct {
	Kind     string // in-memory | distributed-cache | document-db
	RedisURL string
	PGDSN    string
}

// SessionStoreConfig selects and parameterizes the C2 Session Store backend.
type SessionStoreConfig struct {
	Kind     string // in-memory | distributed-cache
	RedisURL string
	TTL      int // seconds
}

// OrchestratorConfig carries cluster-facing parameters for the Deployment
// Manager and Node-Info Provider.
type OrchestratorConfig struct {
	Namespace               string
	ContainerRegistryEndpoint string
}

// DevelopmentConfig gates the mock-principal middleware (spec.md 6.3, 9).
type DevelopmentConfig struct {
	Mode bool
}

// Config is the gateway's fully resolved runtime configuration.
type Config struct {
	PublicOrigin            string
	IdentityProvider        IdentityProviderConfig
	ResourceStore           ResourceStoreConfig
	SessionStore            SessionStoreConfig
	Orchestrator            OrchestratorConfig
	ToolGatewayWorkloadName string
	Development             DevelopmentConfig
	ListenAddr              string
	LogLevel                string
	LogPretty               bool
}

// Load resolves Config from the process environment, applying the same
// defaults the spec names explicitly (orchestrator.namespace=adapter,
// toolGatewayWorkloadName=toolgateway).
func Load() Config {
	return Config{
		PublicOrigin: getEnv("PUBLIC_ORIGIN", "http://localhost:8080"),
		IdentityProvider: IdentityProviderConfig{
			Issuer:   getEnv("IDENTITY_PROVIDER_ISSUER", ""),
			Audience: getEnv("IDENTITY_PROVIDER_AUDIENCE", ""),
			TenantID: getEnv("IDENTITY_PROVIDER_TENANT_ID", ""),
			ClientID: getEnv("IDENTITY_PROVIDER_CLIENT_ID", ""),
		},
		ResourceStore: ResourceStoreConfig{
			Kind:     getEnv("RESOURCE_STORE_KIND", "in-memory"),
			RedisURL: getEnv("RESOURCE_STORE_REDIS_URL", "redis://localhost:6379/0"),
			PGDSN:    getEnv("RESOURCE_STORE_PG_DSN", ""),
		},
		SessionStore: SessionStoreConfig{
			Kind:     getEnv("SESSION_STORE_KIND", "in-memory"),
			RedisURL: getEnv("SESSION_STORE_REDIS_URL", "redis://localhost:6379/1"),
			TTL:      getEnvInt("SESSION_STORE_TTL_SECONDS", 14400),
		},
		Orchestrator: OrchestratorConfig{
			Namespace:               getEnv("ORCHESTRATOR_NAMESPACE", "adapter"),
			ContainerRegistryEndpoint: getEnv("CONTAINER_REGISTRY_ENDPOINT", ""),
		},
		ToolGatewayWorkloadName: getEnv("TOOL_GATEWAY_WORKLOAD_NAME", "toolgateway"),
		Development: DevelopmentConfig{
			Mode: getEnvBool("DEVELOPMENT_MODE", false),
		},
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPretty:  getEnvBool("LOG_PRETTY", false),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
