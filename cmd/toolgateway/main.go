// Command toolgateway runs C9, the Tool-Gateway Router, as its own
// deployable workload behind the "toolgateway-service" the session
// routing handler and node-info provider resolve by convention (spec.md
// sections 4.7 and 6.1). It trusts the forwarded identity headers set by
// the main gateway rather than running its own identity-provider
// handshake (spec.md section 4.10).
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
	"github.com/streamspace-dev/mcp-gateway/internal/identity"
	"github.com/streamspace-dev/mcp-gateway/internal/k8sclient"
	"github.com/streamspace-dev/mcp-gateway/internal/logger"
	"github.com/streamspace-dev/mcp-gateway/internal/permissions"
	"github.com/streamspace-dev/mcp-gateway/internal/resources"
	"github.com/streamspace-dev/mcp-gateway/internal/store"
	"github.com/streamspace-dev/mcp-gateway/internal/toolgateway"
)

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

	auditor := audit.New(auditDB(backend))
	perm := permissions.New()
	deployer := deploy.New(clientset, cfg.Orchestrator.Namespace, cfg.Orchestrator.ContainerRegistryEndpoint)

	tools := resources.NewToolService(backend, perm, deployer, auditor)
	router := toolgateway.New(tools, cfg.Orchestrator.Namespace)
	handler := toolgateway.NewHandler(router)

	engine := gin.New()
	engine.Use(apperr.Recovery(), apperr.ErrorHandler())
	engine.Use(identity.RequireForwardedPrincipal())
	engine.POST("/mcp", handler.Serve)

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: engine}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("toolgateway listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("toolgateway server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down toolgateway")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
