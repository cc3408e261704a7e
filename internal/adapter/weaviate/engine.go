package weaviate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	"github.com/weaviate/weaviate/entities/models"

	"recsync/internal/catalog"
)

const DefaultClass = "CatalogItem"

// Engine stores catalog items as objects of a single Weaviate class.
type Engine struct {
	client *weaviate.Client
	schema SchemaClient
	class  string
}

func NewEngine(client *weaviate.Client, className string) *Engine {
	if className == "" {
		className = DefaultClass
	}
	return &Engine{client: client, schema: NewSchemaAdapter(client), class: className}
}

// ObjectID derives the object UUID for an item key. The same key always
// maps to the same object, which makes SetItems an upsert.
func ObjectID(className, itemID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("recsync/"+className+"/"+itemID)).String()
}

func (e *Engine) AddProperties(ctx context.Context, props []catalog.Property) error {
	if err := EnsureClass(ctx, e.schema, e.class, Properties(props)); err != nil {
		return fmt.Errorf("ensure class %s: %w", e.class, err)
	}
	return nil
}

func (e *Engine) SetItems(ctx context.Context, items []catalog.Item) error {
	if len(items) == 0 {
		return nil
	}

	objects := make([]*models.Object, 0, len(items))
	for _, item := range items {
		props := make(map[string]any, len(item.Values)+1)
		for k, v := range item.Values {
			if v != nil {
				props[k] = propertyValue(v)
			}
		}
		props[PropItemID] = item.ID

		objects = append(objects, &models.Object{
			Class:      e.class,
			ID:         strfmt.UUID(ObjectID(e.class, item.ID)),
			Properties: props,
		})
	}

	resp, err := e.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("batch upsert: %w", err)
	}

	var errs []error
	for _, r := range resp {
		if r.Result == nil || r.Result.Errors == nil {
			continue
		}
		for _, item := range r.Result.Errors.Error {
			errs = append(errs, fmt.Errorf("object %s: %s", r.ID, item.Message))
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) DeleteItems(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		err := e.client.Data().Deleter().
			WithClassName(e.class).
			WithID(ObjectID(e.class, id)).
			Do(ctx)
		if err == nil || isNotFound(err) {
			continue
		}
		errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
	}
	return errors.Join(errs...)
}

// propertyValue projects option lists, passed through raw as
// [{"name", "codename"}], to their codenames so they fit a text[] property.
func propertyValue(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	codenames := make([]string, 0, len(list))
	for _, el := range list {
		option, ok := el.(map[string]any)
		if !ok {
			return v
		}
		codename, ok := option["codename"].(string)
		if !ok {
			return v
		}
		codenames = append(codenames, codename)
	}
	return codenames
}

func isNotFound(err error) bool {
	var wErr *fault.WeaviateClientError
	return errors.As(err, &wErr) && wErr.StatusCode == http.StatusNotFound
}
