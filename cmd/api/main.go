// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Concord HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Build the external collaborator clients.
//  7. Rebuild the similarity index from the translation memory.
//  8. Wire domain services and HTTP handlers.
//  9. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/concord/internal/api"
	"github.com/taibuivan/concord/internal/core/concurrence"
	"github.com/taibuivan/concord/internal/core/matcher"
	"github.com/taibuivan/concord/internal/core/publication"
	"github.com/taibuivan/concord/internal/core/session"
	"github.com/taibuivan/concord/internal/core/similarity"
	"github.com/taibuivan/concord/internal/core/terminology"
	"github.com/taibuivan/concord/internal/core/tm"
	"github.com/taibuivan/concord/internal/platform/config"
	"github.com/taibuivan/concord/internal/platform/constants"
	"github.com/taibuivan/concord/internal/platform/migration"
	pgstore "github.com/taibuivan/concord/internal/platform/postgres"
	redisstore "github.com/taibuivan/concord/internal/platform/redis"
	"github.com/taibuivan/concord/internal/provider"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Concord] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Collaborator Clients ───────────────────────────────────────────
	embedder := provider.NewEmbeddingClient(cfg.EmbeddingURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingTimeout)
	translator := provider.NewTranslatorClient(cfg.TranslatorURL, cfg.TranslatorTimeout)
	extractor := provider.NewTermExtractorClient(cfg.TermExtractorURL, cfg.TermExtractorTimeout)
	documents := provider.NewDocumentStoreClient(cfg.DocumentStoreURL, cfg.DocumentStoreTimeout)

	// ── 7. Translation Memory & Similarity Index ──────────────────────────
	unitStore := tm.NewPostgresUnitStore(pool)
	unitCache := tm.NewRedisUnitCache(rdb)
	memory := tm.NewService(unitStore, unitCache, similarity.NewIndex(), log)

	indexed, err := memory.ReindexAll(startupCtx)
	must(log, err, "rebuild similarity index")
	log.Info("similarity_index_ready", slog.Int("units", indexed))

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	ledger := terminology.NewLedger(terminology.NewPostgresEntryStore(pool), cfg.TermConflictThreshold, log)

	match := matcher.New(memory, embedder, translator, matcher.Config{
		AutoAcceptThreshold: cfg.MatchAutoAcceptThreshold,
		FuzzyFloor:          cfg.MatchFuzzyFloor,
		ContextBoost:        cfg.MatchContextBoost,
		TopK:                cfg.MatchFuzzyTopK,
	}, log)

	validator := concurrence.New(documents, extractor, ledger, cfg.StrictTerminology, log)
	coordinator := publication.NewCoordinator(
		publication.NewPostgresStagingStore(pool),
		documents, embedder, extractor, memory, log,
	)

	sessions := session.NewService(session.NewMemoryRepository(), documents, match, validator, coordinator, log)

	// ── 9. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:    liveness,
		Readiness:   readiness,
		Session:     session.NewHandler(sessions),
		TM:          tm.NewHandler(memory),
		Terminology: terminology.NewHandler(ledger),
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
