package weaviate

import (
	"context"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"recsync/internal/catalog"
)

// PropItemID stores the catalog item key on every object.
const PropItemID = "itemId"

// SchemaClient is the subset of the Weaviate schema API the engine needs.
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

type SchemaAdapter struct {
	client *weaviate.Client
}

func NewSchemaAdapter(client *weaviate.Client) *SchemaAdapter {
	return &SchemaAdapter{client: client}
}

func (a *SchemaAdapter) ClassExists(ctx context.Context, className string) (bool, error) {
	return a.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
}

func (a *SchemaAdapter) CreateClass(ctx context.Context, class *models.Class) error {
	return a.client.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (a *SchemaAdapter) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return a.client.Schema().ClassGetter().WithClassName(className).Do(ctx)
}

func (a *SchemaAdapter) AddProperty(ctx context.Context, className string, property *models.Property) error {
	return a.client.Schema().PropertyCreator().WithClassName(className).WithProperty(property).Do(ctx)
}

// Kontent numbers may be fractional, so int is stored as number.
var dataTypes = map[catalog.DataType]string{
	catalog.TypeString:    "text",
	catalog.TypeInt:       "number",
	catalog.TypeDouble:    "number",
	catalog.TypeBoolean:   "boolean",
	catalog.TypeTimestamp: "date",
	catalog.TypeSet:       "text[]",
	catalog.TypeImage:     "text",
	catalog.TypeImageList: "text[]",
}

// Properties converts catalog declarations into Weaviate properties.
// The item key property always comes first; unknown types are skipped.
func Properties(props []catalog.Property) []*models.Property {
	out := []*models.Property{{Name: PropItemID, DataType: []string{"text"}}}
	for _, p := range props {
		dt, ok := dataTypes[p.Type]
		if !ok || p.Name == PropItemID {
			continue
		}
		out = append(out, &models.Property{Name: p.Name, DataType: []string{dt}})
	}
	return out
}

// EnsureClass creates the class when it is missing, otherwise adds the
// properties it does not have yet.
func EnsureClass(ctx context.Context, client SchemaClient, className string, properties []*models.Property) error {
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return err
	}

	if !exists {
		class := &models.Class{
			Class:       className,
			Description: "A content item synchronized from Kontent.ai",
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

	class, err := client.GetClass(ctx, className)
	if err != nil {
		return err
	}

	existing := make(map[string]bool, len(class.Properties))
	for _, p := range class.Properties {
		existing[p.Name] = true
	}

	for _, p := range properties {
		if existing[p.Name] {
			continue
		}
		if err := client.AddProperty(ctx, className, p); err != nil {
			return err
		}
		existing[p.Name] = true
	}

	return nil
}
