package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/duckmesh/nlquery/internal/assistant"
	"github.com/duckmesh/nlquery/internal/bootstrap"
	cli "github.com/duckmesh/nlquery/internal/cli/nlquery"
	"github.com/duckmesh/nlquery/internal/config"
	"github.com/duckmesh/nlquery/internal/observability"
	"github.com/duckmesh/nlquery/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("nlquery")
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if _, ok := os.LookupEnv("NLQUERY_LOG_LEVEL"); !ok {
		cfg.Observability.LogLevel = slog.LevelWarn
	}
	logger := observability.NewLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openStore := func(ctx context.Context) (storage.ObjectStore, error) {
		return bootstrap.NewObjectStore(ctx, cfg)
	}

	options := cli.Options{
		Session:       assistant.SessionFromConfig(cfg),
		DatasetRoot:   cfg.Dataset.Root,
		DatasetPrefix: cfg.Dataset.Prefix,
		OpenStore:     openStore,
		Build: func(ctx context.Context) (cli.Services, error) {
			var store storage.ObjectStore
			if cfg.Dataset.Source == config.DatasetSourceS3 {
				opened, err := openStore(ctx)
				if err != nil {
					return cli.Services{}, err
				}
				store = opened
			}
			source, err := bootstrap.NewDatasetSource(cfg, store)
			if err != nil {
				return cli.Services{}, err
			}
			engine := bootstrap.NewEngine(source)
			completer, err := bootstrap.NewCompleter(cfg, logger)
			if err != nil {
				return cli.Services{}, err
			}
			service, err := bootstrap.NewAssistant(cfg, logger, completer, engine)
			if err != nil {
				return cli.Services{}, err
			}
			return cli.Services{Assistant: service, Engine: engine}, nil
		},
		Logger: logger,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}

	code := cli.Run(ctx, os.Args[1:], options)
	stop()
	os.Exit(code)
}
