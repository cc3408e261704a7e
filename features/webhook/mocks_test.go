package webhook_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"recsync/features/failure"
	"recsync/features/webhook"
	"recsync/internal/adapter/kontent"
	"recsync/internal/content"
	"recsync/internal/events"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) GetContentForCodename(ctx context.Context, codename string) (*content.Item, error) {
	args := m.Called(ctx, codename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.Item), args.Error(1)
}

type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) ImportContent(ctx context.Context, items []content.Item) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockSyncer) DeleteContent(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Save(ctx context.Context, rec *failure.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type MockEmitter struct {
	mock.Mock
}

func (m *MockEmitter) Emit(ctx context.Context, o events.SyncOutcome) {
	m.Called(ctx, o)
}

// sourceFactory hands out one shared MockSource and remembers the
// configurations it was asked for.
type sourceFactory struct {
	mu      sync.Mutex
	source  *MockSource
	configs []kontent.Config
}

func newSourceFactory() *sourceFactory {
	return &sourceFactory{source: new(MockSource)}
}

func (f *sourceFactory) New(cfg kontent.Config) webhook.Source {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = append(f.configs, cfg)
	return f.source
}

func (f *sourceFactory) Configs() []kontent.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]kontent.Config(nil), f.configs...)
}

func notification(action webhook.Action, id, codename, typ, language string) webhook.Notification {
	return webhook.Notification{
		Action:        action,
		ObjectType:    webhook.ObjectTypeContentItem,
		EnvironmentID: "env-1",
		Item: webhook.ItemRef{
			ID:           id,
			Codename:     codename,
			Type:         typ,
			Language:     language,
			LastModified: "2024-01-01T10:00:00Z",
		},
	}
}

func contentItem(id, codename, language string) *content.Item {
	return &content.Item{
		System: content.System{ID: id, Codename: codename, Language: language, Type: "product"},
	}
}
