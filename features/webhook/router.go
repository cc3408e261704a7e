package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"recsync/features/failure"
	"recsync/internal/adapter/kontent"
	"recsync/internal/content"
	"recsync/internal/events"
	"recsync/internal/logger"
	"recsync/internal/metrics"
	"recsync/internal/middleware"
)

type Status string

const (
	StatusSynced     Status = "synced"
	StatusDeleted    Status = "deleted"
	StatusSkipped    Status = "skipped"
	StatusSuperseded Status = "superseded"
	StatusFailed     Status = "failed"
)

const (
	CodeOK     = 200
	CodeFailed = 520
)

const DefaultConcurrency = 32

// Outcome is the result of routing one notification.
type Outcome struct {
	Notification Notification
	Status       Status
	Code         int
	Err          error
}

type Source interface {
	GetContentForCodename(ctx context.Context, codename string) (*content.Item, error)
}

// SourceFactory builds a source client scoped to one notification's
// environment, content type and language.
type SourceFactory func(cfg kontent.Config) Source

type Syncer interface {
	ImportContent(ctx context.Context, items []content.Item) error
	DeleteContent(ctx context.Context, ids []string) error
}

type FailureRecorder interface {
	Save(ctx context.Context, rec *failure.Record) error
}

type OutcomeEmitter interface {
	Emit(ctx context.Context, o events.SyncOutcome)
}

type Router struct {
	sources     SourceFactory
	syncer      Syncer
	environment string
	limit       int
	failures    FailureRecorder
	emitter     OutcomeEmitter
}

type RouterOption func(*Router)

func WithConcurrency(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithDefaultEnvironment is used when a notification carries no environment id.
func WithDefaultEnvironment(id string) RouterOption {
	return func(r *Router) { r.environment = id }
}

func WithFailureRecorder(f FailureRecorder) RouterOption {
	return func(r *Router) { r.failures = f }
}

func WithOutcomeEmitter(e OutcomeEmitter) RouterOption {
	return func(r *Router) { r.emitter = e }
}

func NewRouter(sources SourceFactory, syncer Syncer, opts ...RouterOption) *Router {
	r := &Router{sources: sources, syncer: syncer, limit: DefaultConcurrency}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route processes the notifications that match the watched types and
// languages and returns one outcome per matching notification, in payload
// order. Per-notification failures are reported in the outcomes and never
// stop sibling notifications.
func (r *Router) Route(ctx context.Context, notifications []Notification, types, languages []string) []Outcome {
	relevant := make([]Notification, 0, len(notifications))
	for _, n := range notifications {
		if n.ObjectType != ObjectTypeContentItem {
			continue
		}
		if !slices.Contains(types, n.Item.Type) || !slices.Contains(languages, n.Item.Language) {
			continue
		}
		relevant = append(relevant, n)
	}

	winners := latestPerKey(relevant)
	outcomes := make([]Outcome, len(relevant))

	var g errgroup.Group
	g.SetLimit(r.limit)
	for i, n := range relevant {
		if !winners[i] {
			outcomes[i] = Outcome{Notification: n, Status: StatusSuperseded, Code: CodeOK}
			r.report(ctx, outcomes[i], 0)
			continue
		}
		g.Go(func() error {
			start := time.Now()
			outcomes[i] = r.process(ctx, n)
			r.report(ctx, outcomes[i], time.Since(start))
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// latestPerKey marks, for every item key, the notification with the latest
// parsable last_modified. Ties go to the later one in payload order, as do
// keys where no timestamp parses.
func latestPerKey(ns []Notification) []bool {
	winner := make(map[string]modification, len(ns))
	for i, n := range ns {
		m := newModification(i, n)
		if cur, seen := winner[n.Key()]; seen && !m.supersedes(cur) {
			continue
		}
		winner[n.Key()] = m
	}

	out := make([]bool, len(ns))
	for _, m := range winner {
		out[m.index] = true
	}
	return out
}

type modification struct {
	index  int
	at     time.Time
	parsed bool
}

func newModification(i int, n Notification) modification {
	at, err := time.Parse(time.RFC3339Nano, n.Item.LastModified)
	return modification{index: i, at: at, parsed: err == nil}
}

// supersedes reports whether m, seen after cur, replaces it.
func (m modification) supersedes(cur modification) bool {
	switch {
	case m.parsed && cur.parsed:
		return !m.at.Before(cur.at)
	case cur.parsed:
		return false
	default:
		return true
	}
}

func (r *Router) process(ctx context.Context, n Notification) (out Outcome) {
	out = Outcome{Notification: n, Code: CodeOK}
	defer func() {
		if p := recover(); p != nil {
			out.Status, out.Code, out.Err = StatusFailed, CodeFailed, fmt.Errorf("panic: %v", p)
		}
	}()

	var err error
	switch n.Action {
	case ActionPublished:
		out.Status, err = r.publish(ctx, n)
	case ActionUnpublished:
		out.Status = StatusDeleted
		err = r.syncer.DeleteContent(ctx, []string{n.Key()})
	default:
		out.Status = StatusSkipped
	}

	if err != nil {
		out.Status, out.Code, out.Err = StatusFailed, CodeFailed, err
	}
	return out
}

func (r *Router) publish(ctx context.Context, n Notification) (Status, error) {
	env := n.EnvironmentID
	if env == "" {
		env = r.environment
	}

	src := r.sources(kontent.Config{
		EnvironmentID: env,
		ContentType:   n.Item.Type,
		Language:      n.Item.Language,
	})

	item, err := src.GetContentForCodename(ctx, n.Item.Codename)
	if err != nil {
		return "", fmt.Errorf("fetch %q: %w", n.Item.Codename, err)
	}
	// Unpublished or deleted after the notification was sent.
	if item == nil {
		return StatusSkipped, nil
	}

	if err := r.syncer.ImportContent(ctx, []content.Item{*item}); err != nil {
		return "", err
	}
	return StatusSynced, nil
}

func (r *Router) report(ctx context.Context, o Outcome, elapsed time.Duration) {
	n := o.Notification
	ctx = logger.WithAttrs(ctx, "key", n.Key(), "codename", n.Item.Codename, "action", string(n.Action))

	action := metricAction(n.Action)
	metrics.NotificationOutcomes.WithLabelValues(action, string(o.Status)).Inc()
	if elapsed > 0 {
		metrics.NotificationDuration.WithLabelValues(action).Observe(elapsed.Seconds())
	}

	errText := ""
	if o.Err != nil {
		errText = o.Err.Error()
		slog.ErrorContext(ctx, "notification failed", "status_code", o.Code, "error", o.Err)
		if r.failures != nil {
			rec := &failure.Record{
				ItemID:        n.Item.ID,
				Codename:      n.Item.Codename,
				Language:      n.Item.Language,
				ContentType:   n.Item.Type,
				Action:        string(n.Action),
				Error:         errText,
				StatusCode:    o.Code,
				CorrelationID: middleware.GetCorrelationID(ctx),
			}
			if err := r.failures.Save(ctx, rec); err != nil {
				slog.WarnContext(ctx, "failed to record notification failure", "error", err)
			}
		}
	} else {
		slog.InfoContext(ctx, "notification processed", "status", string(o.Status), "duration", elapsed)
	}

	if r.emitter != nil {
		r.emitter.Emit(ctx, events.SyncOutcome{
			Key:           n.Key(),
			ItemID:        n.Item.ID,
			Codename:      n.Item.Codename,
			Language:      n.Item.Language,
			ContentType:   n.Item.Type,
			Action:        string(n.Action),
			Status:        string(o.Status),
			Code:          o.Code,
			Error:         errText,
			CorrelationID: middleware.GetCorrelationID(ctx),
			OccurredAt:    time.Now().UTC(),
		})
	}
}

func metricAction(a Action) string {
	switch a {
	case ActionPublished, ActionUnpublished:
		return string(a)
	default:
		return "other"
	}
}
