package catalog

import (
	"context"
	"fmt"

	"recsync/internal/content"
)

// Syncer applies content changes to an Engine.
type Syncer struct {
	engine Engine
}

func NewSyncer(e Engine) *Syncer {
	return &Syncer{engine: e}
}

// InitStructure declares the system properties and one property per mappable
// element. Backends treat already declared properties as success, so
// running it again is safe.
func (s *Syncer) InitStructure(ctx context.Context, defs []content.ElementDefinition) error {
	if err := s.engine.AddProperties(ctx, Schema(defs)); err != nil {
		return fmt.Errorf("init structure: %w", err)
	}
	return nil
}

// ImportContent maps and upserts items in a single batch.
func (s *Syncer) ImportContent(ctx context.Context, items []content.Item) error {
	if len(items) == 0 {
		return nil
	}
	mapped := make([]Item, 0, len(items))
	for _, it := range items {
		m, err := MapItem(it)
		if err != nil {
			return fmt.Errorf("map item %q: %w", it.System.Codename, err)
		}
		mapped = append(mapped, m)
	}
	if err := s.engine.SetItems(ctx, mapped); err != nil {
		return fmt.Errorf("import content: %w", err)
	}
	return nil
}

// DeleteContent removes items by engine key in a single batch.
func (s *Syncer) DeleteContent(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.engine.DeleteItems(ctx, ids); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	return nil
}
