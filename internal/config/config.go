package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

const (
	BackendRecombee = "recombee"
	BackendWeaviate = "weaviate"
)

type Config struct {
	// Recommendation engine
	EngineBackend    string `envconfig:"ENGINE_BACKEND" default:"recombee"`
	RecombeeDatabase string `envconfig:"RECOMBEE_API_ID"`
	RecombeeKey      string `envconfig:"RECOMBEE_API_KEY"`
	RecombeeRegion   string `envconfig:"RECOMBEE_REGION"`
	RecombeeBaseURI  string `envconfig:"RECOMBEE_BASE_URI"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`
	WeaviateClass  string `envconfig:"WEAVIATE_CLASS" default:"CatalogItem"`

	// Content source
	KontentSecret        string `envconfig:"KONTENT_SECRET"`
	KontentEnvironmentID string `envconfig:"KONTENT_ENVIRONMENT_ID"`
	KontentDeliveryURL   string `envconfig:"KONTENT_DELIVERY_URL" default:"https://deliver.kontent.ai"`
	KontentSecureAPIKey  string `envconfig:"KONTENT_SECURE_API_KEY"`

	// Failure log and outcome events are disabled when left empty.
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`
	NSQDHost      string `envconfig:"NSQD_HOST"`
	OutcomeTopic  string `envconfig:"OUTCOME_TOPIC" default:"catalog.sync.outcome"`

	// Server
	ServerPort              int    `envconfig:"SERVER_PORT" default:"8080"`
	NotificationConcurrency int    `envconfig:"NOTIFICATION_CONCURRENCY" default:"32"`
	HTTPTimeoutSeconds      int    `envconfig:"HTTP_TIMEOUT_SECONDS" default:"30"`
	MaxBodyBytes            int64  `envconfig:"MAX_BODY_BYTES" default:"5242880"` // 5MB
	LogLevel                string `envconfig:"LOG_LEVEL" default:"info"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars set in the shell win over .env
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks what the process needs to start. Webhook credentials are
// checked per request by ValidateWebhook.
func (c *Config) Validate() error {
	switch c.EngineBackend {
	case BackendRecombee:
	case BackendWeaviate:
		if c.WeaviateHost == "" {
			return fmt.Errorf("%w: WEAVIATE_HOST", ErrMissingRequired)
		}
		if c.WeaviateClass == "" {
			return fmt.Errorf("%w: WEAVIATE_CLASS", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("unsupported ENGINE_BACKEND %q", c.EngineBackend)
	}

	if c.NotificationConcurrency < 1 {
		return fmt.Errorf("NOTIFICATION_CONCURRENCY must be positive, got %d", c.NotificationConcurrency)
	}
	if c.MaxBodyBytes < 1 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// ValidateWebhook reports the credentials a webhook invocation cannot run
// without.
func (c *Config) ValidateWebhook() error {
	if c.KontentSecret == "" {
		return fmt.Errorf("%w: KONTENT_SECRET", ErrMissingRequired)
	}
	return c.ValidateEngine()
}

// ValidateEngine checks the credentials of the selected engine backend.
func (c *Config) ValidateEngine() error {
	if c.EngineBackend == BackendRecombee {
		if c.RecombeeKey == "" {
			return fmt.Errorf("%w: RECOMBEE_API_KEY", ErrMissingRequired)
		}
		if c.RecombeeDatabase == "" {
			return fmt.Errorf("%w: RECOMBEE_API_ID", ErrMissingRequired)
		}
	}
	return nil
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
