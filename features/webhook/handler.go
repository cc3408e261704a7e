package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"recsync/internal/config"
	"recsync/internal/metrics"
	"recsync/internal/signature"
)

// Handler serves the Kontent webhook endpoint. Responses are plain text.
type Handler struct {
	cfg    *config.Config
	router *Router
}

func NewHandler(cfg *config.Config, router *Router) *Handler {
	return &Handler{cfg: cfg, router: router}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		h.respond(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	if err := h.cfg.ValidateWebhook(); err != nil {
		slog.ErrorContext(ctx, "webhook configuration incomplete", "error", err)
		h.respond(w, http.StatusBadRequest, "Missing environment configuration")
		return
	}

	types := ParseList(r.URL.Query().Get("types"))
	languages := ParseList(r.URL.Query().Get("languages"))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respond(w, http.StatusRequestEntityTooLarge, "Payload Too Large")
			return
		}
		slog.WarnContext(ctx, "failed to read webhook body", "error", err)
		h.respond(w, http.StatusBadRequest, "Missing Data")
		return
	}

	if len(body) == 0 || len(types) == 0 || len(languages) == 0 {
		h.respond(w, http.StatusBadRequest, "Missing Data")
		return
	}

	if !signature.Valid(body, h.cfg.KontentSecret, r.Header.Get(signature.HeaderName)) {
		slog.WarnContext(ctx, "rejected webhook with invalid signature")
		h.respond(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	notifications, err := DecodeNotifications(body)
	if err != nil {
		slog.WarnContext(ctx, "rejected malformed webhook payload", "error", err)
		h.respond(w, http.StatusBadRequest, "Malformed Payload")
		return
	}

	// Processing outlives a caller that hangs up; engine and source clients
	// carry their own timeouts.
	outcomes := h.router.Route(context.WithoutCancel(ctx), notifications, types, languages)

	failed := 0
	for _, o := range outcomes {
		if o.Status == StatusFailed {
			failed++
		}
	}
	slog.InfoContext(ctx, "webhook processed", "notifications", len(notifications), "routed", len(outcomes), "failed", failed)

	h.respond(w, http.StatusOK, "success")
}

func (h *Handler) respond(w http.ResponseWriter, status int, body string) {
	metrics.WebhookRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
