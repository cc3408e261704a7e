package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"recsync/internal/metrics"
)

// ResilientEngine guards an Engine with a circuit breaker and records
// request metrics per operation.
//
// The breaker opens when at least 60% of 10 or more requests within a minute
// failed, then probes again after 30 seconds with up to 3 requests.
type ResilientEngine struct {
	backend string
	engine  Engine
	cb      *gobreaker.CircuitBreaker[struct{}]
}

func NewResilientEngine(backend string, e Engine) *ResilientEngine {
	name := backend + "-engine"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= 0.6 {
				slog.Warn("opening engine circuit breaker", "breaker", name, "failures", counts.TotalFailures, "failure_rate", ratio)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("engine circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		// A caller giving up is not a sign of an unhealthy engine.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &ResilientEngine{backend: backend, engine: e, cb: cb}
}

func (r *ResilientEngine) AddProperties(ctx context.Context, props []Property) error {
	return r.do("add_properties", func() error { return r.engine.AddProperties(ctx, props) })
}

func (r *ResilientEngine) SetItems(ctx context.Context, items []Item) error {
	return r.do("set_items", func() error { return r.engine.SetItems(ctx, items) })
}

func (r *ResilientEngine) DeleteItems(ctx context.Context, ids []string) error {
	return r.do("delete_items", func() error { return r.engine.DeleteItems(ctx, ids) })
}

// State exposes the breaker state for health reporting.
func (r *ResilientEngine) State() gobreaker.State {
	return r.cb.State()
}

func (r *ResilientEngine) do(op string, fn func() error) error {
	start := time.Now()
	_, err := r.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	metrics.EngineRequestDuration.WithLabelValues(r.backend, op).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.EngineRequests.WithLabelValues(r.backend, op, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.EngineRequests.WithLabelValues(r.backend, op, "rejected").Inc()
	default:
		metrics.EngineRequests.WithLabelValues(r.backend, op, "failure").Inc()
	}
	return err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
