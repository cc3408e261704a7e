package catalogsync

import (
	"context"
	"fmt"
	"log/slog"

	"recsync/internal/content"
)

type Source interface {
	GetContentType(ctx context.Context) (*content.Type, error)
	GetAllContentItemsOfType(ctx context.Context) ([]content.Item, error)
}

type Catalog interface {
	InitStructure(ctx context.Context, defs []content.ElementDefinition) error
	ImportContent(ctx context.Context, items []content.Item) error
}

type Result struct {
	ContentType string `json:"content_type"`
	Elements    int    `json:"elements"`
	Imported    int    `json:"imported"`
}

// Service declares the catalog schema for a content type and optionally
// imports every item of that type.
type Service struct {
	catalog Catalog
}

func NewService(c Catalog) *Service {
	return &Service{catalog: c}
}

func (s *Service) Run(ctx context.Context, src Source, skipImport bool) (Result, error) {
	typ, err := src.GetContentType(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("get content type: %w", err)
	}

	defs := typ.Definitions()
	res := Result{ContentType: typ.System.Codename, Elements: len(defs)}

	if err := s.catalog.InitStructure(ctx, defs); err != nil {
		return res, err
	}
	slog.InfoContext(ctx, "catalog structure initialized", "content_type", res.ContentType, "elements", res.Elements)

	if skipImport {
		return res, nil
	}

	items, err := src.GetAllContentItemsOfType(ctx)
	if err != nil {
		return res, fmt.Errorf("list content items: %w", err)
	}

	if err := s.catalog.ImportContent(ctx, items); err != nil {
		return res, err
	}
	res.Imported = len(items)
	slog.InfoContext(ctx, "catalog content imported", "content_type", res.ContentType, "items", res.Imported)

	return res, nil
}
