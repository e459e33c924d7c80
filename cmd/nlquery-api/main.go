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

	"github.com/joho/godotenv"

	"github.com/duckmesh/nlquery/internal/api"
	"github.com/duckmesh/nlquery/internal/assistant"
	"github.com/duckmesh/nlquery/internal/auth"
	"github.com/duckmesh/nlquery/internal/bootstrap"
	"github.com/duckmesh/nlquery/internal/config"
	"github.com/duckmesh/nlquery/internal/observability"
	"github.com/duckmesh/nlquery/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("nlquery-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	readiness := []api.ReadinessCheck{
		api.CheckModelCredentials(cfg),
		api.CheckObjectStoreConfig(cfg),
	}
	var objectStore storage.ObjectStore
	if cfg.Dataset.Source == config.DatasetSourceS3 {
		store, err := bootstrap.NewObjectStore(context.Background(), cfg)
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		objectStore = store
		readiness = append(readiness, store.Ready)
	}

	source, err := bootstrap.NewDatasetSource(cfg, objectStore)
	if err != nil {
		logger.Error("failed to configure dataset source", slog.Any("error", err))
		os.Exit(1)
	}
	queryEngine := bootstrap.NewEngine(source)

	completer, err := bootstrap.NewCompleter(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize model providers", slog.Any("error", err))
		os.Exit(1)
	}
	service, err := bootstrap.NewAssistant(cfg, logger, completer, queryEngine)
	if err != nil {
		logger.Error("failed to initialize assistant", slog.Any("error", err))
		os.Exit(1)
	}

	deps := api.Dependencies{
		Logger:            logger,
		Assistant:         service,
		QueryEngine:       queryEngine,
		Session:           assistant.SessionFromConfig(cfg),
		Readiness:         api.CombineReadinessChecks(readiness...),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("dataset_source", cfg.Dataset.Source),
			slog.String("default_model", cfg.AI.Model),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
