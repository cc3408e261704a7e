package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"recsync/internal/adapter/kontent"
	"recsync/internal/adapter/recombee"
	wengine "recsync/internal/adapter/weaviate"
	"recsync/internal/catalog"
	"recsync/internal/config"
	"recsync/internal/events"
)

// Version is reported to Kontent in the X-KC-SOURCE header.
var Version = "dev"

// Dependencies are the external resources the service runs against. DB and
// Publisher are nil when the failure log or outcome events are disabled.
type Dependencies struct {
	DB        *sql.DB
	Engine    catalog.Engine
	Publisher events.Publisher
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{Engine: engine}

	if cfg.DatabaseURL != "" {
		db, err := OpenDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		deps.DB = db
	} else {
		slog.Info("DATABASE_URL not set, failure log disabled")
	}

	if cfg.NSQDHost != "" {
		producer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("nsq producer error: %w", err)
		}
		deps.Publisher = producer
	} else {
		slog.Info("NSQD_HOST not set, outcome events disabled")
	}

	return deps, nil
}

func (d *Dependencies) Close() {
	if p, ok := d.Publisher.(interface{ Stop() }); ok {
		p.Stop()
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			slog.Warn("failed to close database", "error", err)
		}
	}
}

// NewEngine builds the configured recommendation engine backend behind a
// circuit breaker.
func NewEngine(cfg *config.Config) (catalog.Engine, error) {
	httpClient := &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second}

	switch cfg.EngineBackend {
	case config.BackendRecombee:
		client := recombee.NewClient(recombee.Config{
			Database: cfg.RecombeeDatabase,
			Key:      cfg.RecombeeKey,
			Region:   cfg.RecombeeRegion,
			BaseURI:  cfg.RecombeeBaseURI,
		}, recombee.WithHTTPClient(httpClient))
		return catalog.NewResilientEngine(config.BackendRecombee, client), nil

	case config.BackendWeaviate:
		wClient, err := weaviate.NewClient(weaviate.Config{
			Host:             cfg.WeaviateHost,
			Scheme:           cfg.WeaviateScheme,
			ConnectionClient: httpClient,
		})
		if err != nil {
			return nil, fmt.Errorf("weaviate client error: %w", err)
		}
		return catalog.NewResilientEngine(config.BackendWeaviate, wengine.NewEngine(wClient, cfg.WeaviateClass)), nil

	default:
		return nil, fmt.Errorf("unsupported engine backend %q", cfg.EngineBackend)
	}
}

// KontentOptions are the source client options shared by the webhook and
// the init-catalog command.
func KontentOptions(cfg *config.Config) []kontent.Option {
	opts := []kontent.Option{
		kontent.WithBaseURL(cfg.KontentDeliveryURL),
		kontent.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second}),
		kontent.WithSourceTag("recsync;" + Version),
	}
	if cfg.KontentSecureAPIKey != "" {
		opts = append(opts, kontent.WithSecureAPIKey(cfg.KontentSecureAPIKey))
	}
	return opts
}

// OpenDatabase connects with retries and applies pending migrations.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		slog.WarnContext(ctx, "failed to ping db, retrying...", "attempt", i+1, "error", err)
		time.Sleep(retryDelay)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationPath, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("migration up error: %w", err)
	}
	slog.InfoContext(ctx, "migrations applied")

	return db, nil
}
