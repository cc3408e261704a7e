package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	gobreaker "github.com/sony/gobreaker/v2"

	"recsync/features/failure"
	"recsync/features/webhook"
	"recsync/internal/adapter/kontent"
	"recsync/internal/catalog"
	"recsync/internal/config"
	"recsync/internal/events"
	"recsync/internal/middleware"
)

type App struct {
	Handler http.Handler
	port    int
}

func New(cfg *config.Config, deps *Dependencies) (*App, error) {
	if deps == nil || deps.Engine == nil {
		return nil, errors.New("app: engine dependency is required")
	}

	syncer := catalog.NewSyncer(deps.Engine)
	kontentOpts := KontentOptions(cfg)
	sources := func(kc kontent.Config) webhook.Source {
		return kontent.NewClient(kc, kontentOpts...)
	}

	routerOpts := []webhook.RouterOption{
		webhook.WithConcurrency(cfg.NotificationConcurrency),
		webhook.WithDefaultEnvironment(cfg.KontentEnvironmentID),
	}

	mux := http.NewServeMux()

	// Feature: Failure log
	if deps.DB != nil {
		failureService := failure.NewService(failure.NewPostgresRepo(deps.DB))
		failureHandler := failure.NewHandler(failureService)
		routerOpts = append(routerOpts, webhook.WithFailureRecorder(failureService))
		mux.Handle("GET /failures", middleware.CorrelationID(http.HandlerFunc(failureHandler.List)))
	}

	// Outcome events
	if deps.Publisher != nil {
		routerOpts = append(routerOpts, webhook.WithOutcomeEmitter(events.NewEmitter(deps.Publisher, cfg.OutcomeTopic)))
	}

	// Feature: Webhook
	router := webhook.NewRouter(sources, syncer, routerOpts...)
	webhookHandler := middleware.CorrelationID(webhook.NewHandler(cfg, router))
	mux.Handle("/webhook", webhookHandler)
	mux.Handle("/{$}", webhookHandler)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]string{"status": "ok"}
		if re, ok := deps.Engine.(*catalog.ResilientEngine); ok {
			state := re.State()
			resp["engine"] = state.String()
			if state == gobreaker.StateOpen {
				resp["status"] = "degraded"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	})

	return &App{Handler: mux, port: cfg.ServerPort}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.port),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
