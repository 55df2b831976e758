// Command gateway runs the control-plane HTTP API and the data-plane
// reverse proxy described in spec.md, wiring every component per section
// 6.3's configuration surface. Sequencing is grounded on the teacher's
// cmd/main.go: load config, init logging, build backends, build services,
// register routes, listen with graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/streamspace-dev/mcp-gateway/internal/apperr"
	"github.com/streamspace-dev/mcp-gateway/internal/audit"
	"github.com/streamspace-dev/mcp-gateway/internal/config"
	"github.com/streamspace-dev/mcp-gateway/internal/deploy"
	"github.com/streamspace-dev/mcp-gateway/internal/httpapi"
	"github.com/streamspace-dev/mcp-gateway/internal/identity"
	"github.com/streamspace-dev/mcp-gateway/internal/k8sclient"
	"github.com/streamspace-dev/mcp-gateway/internal/logger"
	"github.com/streamspace-dev/mcp-gateway/internal/middleware"
	"github.com/streamspace-dev/mcp-gateway/internal/nodeinfo"
	"github.com/streamspace-dev/mcp-gateway/internal/permissions"
	"github.com/streamspace-dev/mcp-gateway/internal/reaper"
	"github.com/streamspace-dev/mcp-gateway/internal/resources"
	"github.com/streamspace-dev/mcp-gateway/internal/routing"
	"github.com/streamspace-dev/mcp-gateway/internal/sessionstore"
	"github.com/streamspace-dev/mcp-gateway/internal/store"
)

const servicePort = 8000

// devModeVerifier rejects every bearer-token request; it exists only so
// development mode (which short-circuits via X-Dev-* headers before the
// verifier is ever reached) still has a non-nil TokenVerifier to satisfy
// the interface.
type devModeVerifier struct{}

func (devModeVerifier) Verify(ctx context.Context, rawToken string) (identity.Principal, error) {
	return identity.Principal{}, apperr.Unauthorized("development mode requires X-Dev-UserId header")
}

// auditDB extracts the shared *sql.DB from a document-db resource store so
// the audit logger can reuse its connection pool (spec.md section 7's
// audit requirement applies regardless of resourceStore.kind, but only the
// document-db backend has a SQL connection to share; other backends run
// with audit logging disabled).
func auditDB(backend store.Store) *sql.DB {
	if pg, ok := backend.(interface{ DB() *sql.DB }); ok {
		return pg.DB()
	}
	return nil
}

func main() {
	cfg := config.Load()
	logger.Initialize(cfg.LogLevel, cfg.LogPretty)
	log := logger.Log

	clientset, err := k8sclient.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build kubernetes client")
	}

	backend, err := store.NewFromConfig(cfg.ResourceStore)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build resource store")
	}

	sessions, closeSessions, err := sessionstore.NewFromConfig(cfg.SessionStore)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build session store")
	}
	defer closeSessions()

	if pruner, ok := sessions.(reaper.Pruner); ok {
		sessionReaper, err := reaper.New(pruner, "*/5 * * * *")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to schedule session reaper")
		}
		sessionReaper.Start()
		defer sessionReaper.Stop()
	}

	auditor := audit.New(auditDB(backend))

	perm := permissions.New()
	deployer := deploy.New(clientset, cfg.Orchestrator.Namespace, cfg.Orchestrator.ContainerRegistryEndpoint)
	nodeInfo := nodeinfo.New(clientset, cfg.Orchestrator.Namespace, servicePort)

	adapters := resources.NewAdapterService(backend, perm, deployer, auditor)
	tools := resources.NewToolService(backend, perm, deployer, auditor)

	router := routing.New(nodeInfo, sessions)
	server := httpapi.NewServer(adapters, tools, router, cfg.ToolGatewayWorkloadName)

	var verifier middleware.TokenVerifier
	if cfg.Development.Mode {
		verifier = devModeVerifier{}
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		v, err := middleware.NewOIDCVerifier(ctx, cfg.IdentityProvider)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build OIDC verifier")
		}
		verifier = v
	}

	engine := gin.New()
	engine.Use(middleware.RequestID(), identity.StripInboundHeaders(), apperr.Recovery(), apperr.ErrorHandler())
	engine.Use(middleware.Authenticate(cfg, verifier))
	server.Register(engine)

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: engine}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("gateway listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("gateway server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down gateway")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
