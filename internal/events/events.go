package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"recsync/internal/metrics"
)

// Publisher is satisfied by *nsq.Producer.
type Publisher interface {
	Publish(topic string, body []byte) error
}

// SyncOutcome is the message published once per routed notification.
type SyncOutcome struct {
	Key           string    `json:"key"`
	ItemID        string    `json:"item_id"`
	Codename      string    `json:"codename"`
	Language      string    `json:"language"`
	ContentType   string    `json:"content_type"`
	Action        string    `json:"action"`
	Status        string    `json:"status"`
	Code          int       `json:"code"`
	Error         string    `json:"error,omitempty"`
	CorrelationID string    `json:"correlation_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Emitter struct {
	pub   Publisher
	topic string
}

func NewEmitter(pub Publisher, topic string) *Emitter {
	return &Emitter{pub: pub, topic: topic}
}

// Emit publishes the outcome. Failures are logged and counted, never returned.
func (e *Emitter) Emit(ctx context.Context, o SyncOutcome) {
	body, err := json.Marshal(o)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal outcome event", "key", o.Key, "error", err)
		metrics.OutcomeEvents.WithLabelValues("error").Inc()
		return
	}

	if err := e.pub.Publish(e.topic, body); err != nil {
		slog.WarnContext(ctx, "failed to publish outcome event", "topic", e.topic, "key", o.Key, "error", err)
		metrics.OutcomeEvents.WithLabelValues("error").Inc()
		return
	}
	metrics.OutcomeEvents.WithLabelValues("published").Inc()
}
