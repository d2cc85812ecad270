package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"repocomply/internal/audit"
	"repocomply/internal/auth/appjwt"
	"repocomply/internal/auth/deviceflow"
	"repocomply/internal/auth/installation"
	"repocomply/internal/auth/session"
	"repocomply/internal/auth/store"
	"repocomply/internal/github"
	"repocomply/internal/platform/config"
	"repocomply/internal/platform/health"
	"repocomply/internal/platform/httpserver"
	"repocomply/internal/platform/logger"
	"repocomply/internal/platform/metrics"
	httptransport "repocomply/internal/transport/http"
)

// main wires the credential core together and keeps the server lifecycle
// small. Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	log.Info("initializing repocomply",
		"addr", cfg.Addr,
		"state_path", cfg.StatePath,
	)

	st, err := store.NewBoltStore(cfg.StatePath)
	if err != nil {
		log.Error("failed to open state store", "path", cfg.StatePath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	clientOpts := []github.Option{github.WithLogger(log)}
	if cfg.GitHubAPIBaseURL != "" {
		clientOpts = append(clientOpts, github.WithAPIBaseURL(cfg.GitHubAPIBaseURL))
	}
	if cfg.GitHubOAuthBaseURL != "" {
		clientOpts = append(clientOpts, github.WithOAuthBaseURL(cfg.GitHubOAuthBaseURL))
	}
	client := github.NewClient(clientOpts...)

	auditStore, err := audit.NewBoltStore(st.DB())
	if err != nil {
		log.Error("failed to initialize audit store", "error", err)
		os.Exit(1)
	}
	trail := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(64),
		audit.WithPublisherLogger(log),
	)
	defer trail.Close()

	m := metrics.New()
	minter := appjwt.NewMinter()
	manager := installation.NewManager(client, minter,
		installation.WithLogger(log),
		installation.WithMetrics(m),
	)
	flows := deviceflow.New(client,
		deviceflow.WithLogger(log),
		deviceflow.WithMetrics(m),
	)
	sessions := session.New(client, manager, minter, flows, st,
		session.WithLogger(log),
		session.WithMetrics(m),
		session.WithAudit(trail),
	)

	if err := sessions.Hydrate(context.Background()); err != nil {
		log.Error("failed to hydrate persisted session", "error", err)
		os.Exit(1)
	}

	healthHandler := health.New()
	healthHandler.RegisterCheck("store", st.Ping)

	handler := httptransport.NewHandler(sessions, trail, log)
	router := httptransport.NewRouter(handler, healthHandler, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	// A device flow may be polling; stop it before the listener goes away.
	sessions.CancelDeviceFlow()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
