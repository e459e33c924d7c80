// Package bootstrap assembles the runtime components shared by the nlquery
// binaries from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/duckmesh/nlquery/internal/assistant"
	"github.com/duckmesh/nlquery/internal/config"
	"github.com/duckmesh/nlquery/internal/dataset"
	"github.com/duckmesh/nlquery/internal/llm"
	"github.com/duckmesh/nlquery/internal/query"
	duckdbengine "github.com/duckmesh/nlquery/internal/query/duckdb"
	"github.com/duckmesh/nlquery/internal/storage"
	s3store "github.com/duckmesh/nlquery/internal/storage/s3"
	"github.com/duckmesh/nlquery/internal/summary"
	"github.com/duckmesh/nlquery/internal/synthesis"
)

// NewCompleter registers a completer for every provider that has an API
// key. Models of an unregistered provider fail at call time.
func NewCompleter(cfg config.Config, logger *slog.Logger) (*llm.Router, error) {
	router := llm.NewRouter()
	if cfg.AI.APIKey != "" {
		completer, err := llm.NewOpenAICompleter(llm.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			MaxRetries:  cfg.AI.MaxRetries,
			Timeout:     cfg.AI.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai-compatible completer: %w", err)
		}
		router.Register(llm.ProviderOpenAICompatible, completer)
	}
	if cfg.AI.AnthropicAPIKey != "" {
		completer, err := llm.NewAnthropicCompleter(llm.AnthropicConfig{
			APIKey:      cfg.AI.AnthropicAPIKey,
			BaseURL:     cfg.AI.AnthropicBaseURL,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			Timeout:     cfg.AI.Timeout,
			MaxRetries:  cfg.AI.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("create anthropic completer: %w", err)
		}
		router.Register(llm.ProviderAnthropic, completer)
	}

	if model, err := llm.ParseModel(cfg.AI.Model); err == nil && !router.Available(model) && logger != nil {
		logger.Warn("default model has no configured provider",
			slog.String("model", model.String()),
			slog.String("provider", string(model.Provider())),
		)
	}
	return router, nil
}

func NewObjectStore(ctx context.Context, cfg config.Config) (*s3store.Store, error) {
	store, err := s3store.New(ctx, s3store.Config{
		Endpoint:         cfg.ObjectStore.Endpoint,
		Region:           cfg.ObjectStore.Region,
		Bucket:           cfg.ObjectStore.Bucket,
		AccessKeyID:      cfg.ObjectStore.AccessKeyID,
		SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
		UseSSL:           cfg.ObjectStore.UseSSL,
		Prefix:           cfg.ObjectStore.Prefix,
		AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize object store: %w", err)
	}
	return store, nil
}

// NewDatasetSource returns the source selected by the dataset config. store
// is only used, and then required, for the s3 source.
func NewDatasetSource(cfg config.Config, store storage.ObjectStore) (dataset.Source, error) {
	tables, err := dataset.ParseTables(cfg.Dataset.Tables)
	if err != nil {
		return nil, err
	}
	switch cfg.Dataset.Source {
	case config.DatasetSourceDir:
		return dataset.NewDirectorySource(cfg.Dataset.Root, tables), nil
	case config.DatasetSourceS3:
		if store == nil {
			return nil, fmt.Errorf("dataset source %q requires an object store", config.DatasetSourceS3)
		}
		return dataset.NewObjectStoreSource(store, cfg.Dataset.Prefix, tables), nil
	default:
		return nil, fmt.Errorf("unsupported dataset source %q", cfg.Dataset.Source)
	}
}

func NewEngine(source dataset.Source) query.Engine {
	return duckdbengine.NewEngine(source)
}

func NewAssistant(cfg config.Config, logger *slog.Logger, completer llm.Completer, engine query.Engine) (*assistant.Service, error) {
	template, err := synthesis.LoadPromptTemplate(cfg.Prompt.BasePromptPath)
	if err != nil {
		return nil, err
	}
	orchestrator := synthesis.NewOrchestrator(completer, engine, template, logger)
	summarizer := summary.NewSummarizer(completer, logger)
	return assistant.NewService(orchestrator, summarizer, logger), nil
}
