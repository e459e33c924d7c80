package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/duckmesh/nlquery/internal/llm"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	DatasetSourceDir = "dir"
	DatasetSourceS3  = "s3"

	MaxSessionAttempts = 10
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	AI            AIConfig
	Session       SessionConfig
	Dataset       DatasetConfig
	Prompt        PromptConfig
	ObjectStore   ObjectStoreConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type AIConfig struct {
	BaseURL          string
	APIKey           string
	AnthropicBaseURL string
	AnthropicAPIKey  string
	Model            string
	Temperature      float64
	MaxTokens        int
	MaxRetries       int
	Timeout          time.Duration
}

type SessionConfig struct {
	MaxAttempts       int
	AdditionalContext string
}

type DatasetConfig struct {
	Source string
	Root   string
	Tables string
	Prefix string
}

type PromptConfig struct {
	BasePromptPath string
}

type ObjectStoreConfig struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("NLQUERY_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid NLQUERY_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	// Provider-native variables first so the NLQUERY_ ones win.
	if err := applyString(lookup, "GROQ_API_KEY", &cfg.AI.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "ANTHROPIC_API_KEY", &cfg.AI.AnthropicAPIKey); err != nil {
		return Config{}, err
	}

	appliers := []func() error{
		func() error { return applyString(lookup, "NLQUERY_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "NLQUERY_HTTP_ADDR", &cfg.HTTP.Address) },
		func() error { return applyDuration(lookup, "NLQUERY_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout) },
		func() error { return applyDuration(lookup, "NLQUERY_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout) },
		func() error { return applyDuration(lookup, "NLQUERY_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout) },
		func() error { return applyString(lookup, "NLQUERY_AI_BASE_URL", &cfg.AI.BaseURL) },
		func() error { return applyString(lookup, "NLQUERY_AI_API_KEY", &cfg.AI.APIKey) },
		func() error { return applyString(lookup, "NLQUERY_AI_ANTHROPIC_BASE_URL", &cfg.AI.AnthropicBaseURL) },
		func() error { return applyString(lookup, "NLQUERY_AI_ANTHROPIC_API_KEY", &cfg.AI.AnthropicAPIKey) },
		func() error { return applyString(lookup, "NLQUERY_AI_MODEL", &cfg.AI.Model) },
		func() error { return applyFloat(lookup, "NLQUERY_AI_TEMPERATURE", &cfg.AI.Temperature) },
		func() error { return applyInt(lookup, "NLQUERY_AI_MAX_TOKENS", &cfg.AI.MaxTokens) },
		func() error { return applyInt(lookup, "NLQUERY_AI_MAX_RETRIES", &cfg.AI.MaxRetries) },
		func() error { return applyDuration(lookup, "NLQUERY_AI_TIMEOUT", &cfg.AI.Timeout) },
		func() error { return applyInt(lookup, "NLQUERY_SESSION_MAX_ATTEMPTS", &cfg.Session.MaxAttempts) },
		func() error {
			return applyString(lookup, "NLQUERY_SESSION_ADDITIONAL_CONTEXT", &cfg.Session.AdditionalContext)
		},
		func() error { return applyString(lookup, "NLQUERY_DATASET_SOURCE", &cfg.Dataset.Source) },
		func() error { return applyString(lookup, "NLQUERY_DATASET_ROOT", &cfg.Dataset.Root) },
		func() error { return applyString(lookup, "NLQUERY_DATASET_TABLES", &cfg.Dataset.Tables) },
		func() error { return applyString(lookup, "NLQUERY_DATASET_PREFIX", &cfg.Dataset.Prefix) },
		func() error { return applyString(lookup, "NLQUERY_PROMPT_BASE_PATH", &cfg.Prompt.BasePromptPath) },
		func() error { return applyString(lookup, "NLQUERY_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint) },
		func() error { return applyString(lookup, "NLQUERY_OBJECTSTORE_REGION", &cfg.ObjectStore.Region) },
		func() error { return applyString(lookup, "NLQUERY_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket) },
		func() error { return applyString(lookup, "NLQUERY_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID) },
		func() error {
			return applyString(lookup, "NLQUERY_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey)
		},
		func() error { return applyBool(lookup, "NLQUERY_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL) },
		func() error { return applyString(lookup, "NLQUERY_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix) },
		func() error {
			return applyBool(lookup, "NLQUERY_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket)
		},
		func() error { return applyBool(lookup, "NLQUERY_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "NLQUERY_LOG_LEVEL", &cfg.Observability.LogLevel) },
		func() error { return applyBool(lookup, "NLQUERY_AUTH_REQUIRED", &cfg.Auth.Required) },
		func() error { return applyString(lookup, "NLQUERY_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys) },
	}
	for _, apply := range appliers {
		if err := apply(); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Service.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if c.HTTP.Address == "" {
		return fmt.Errorf("http address is required")
	}
	if _, err := llm.ParseModel(c.AI.Model); err != nil {
		return fmt.Errorf("invalid NLQUERY_AI_MODEL: %w", err)
	}
	if c.Session.MaxAttempts < 0 || c.Session.MaxAttempts > MaxSessionAttempts {
		return fmt.Errorf("invalid NLQUERY_SESSION_MAX_ATTEMPTS: %d is outside 0..%d", c.Session.MaxAttempts, MaxSessionAttempts)
	}
	switch c.Dataset.Source {
	case DatasetSourceDir:
		if c.Dataset.Root == "" {
			return fmt.Errorf("dataset root is required for source %q", DatasetSourceDir)
		}
	case DatasetSourceS3:
	default:
		return fmt.Errorf("invalid NLQUERY_DATASET_SOURCE: %q", c.Dataset.Source)
	}
	return nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "nlquery-api"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		AI: AIConfig{
			BaseURL:     "https://api.groq.com/openai",
			Model:       string(llm.DefaultModel),
			Temperature: 0,
			MaxTokens:   1024,
			MaxRetries:  2,
			Timeout:     60 * time.Second,
		},
		Session: SessionConfig{
			MaxAttempts: 5,
		},
		Dataset: DatasetConfig{
			Source: DatasetSourceDir,
			Root:   "data",
			Tables: "employees,purchases",
			Prefix: "data",
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "nlquery",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  false,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Auth.Required = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Observability.LogJSON = true
		cfg.Auth.Required = true
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
