// Package catalog turns content items into recommendation-engine items and
// drives an Engine backend with them.
package catalog

import "context"

// DataType is a recommendation-engine property type.
type DataType string

const (
	TypeInt       DataType = "int"
	TypeDouble    DataType = "double"
	TypeString    DataType = "string"
	TypeBoolean   DataType = "boolean"
	TypeTimestamp DataType = "timestamp"
	TypeSet       DataType = "set"
	TypeImage     DataType = "image"
	TypeImageList DataType = "imageList"
)

// System property names written for every item.
const (
	PropCodename     = "system_codename"
	PropLanguage     = "system_language"
	PropLastModified = "system_last_modified"
	PropType         = "system_type"
	PropCollection   = "system_collection"
)

// Property is a single item property declaration.
type Property struct {
	Name string   `json:"name"`
	Type DataType `json:"type"`
}

// Item is the flat representation of a content item in the engine.
type Item struct {
	ID     string         `json:"id"`
	Values map[string]any `json:"values"`
}

// ItemID is the engine key of a content item variant.
func ItemID(id, language string) string {
	return id + "_" + language
}

// Engine is a recommendation-engine backend. Each call is one batched
// remote request.
type Engine interface {
	AddProperties(ctx context.Context, props []Property) error
	SetItems(ctx context.Context, items []Item) error
	DeleteItems(ctx context.Context, ids []string) error
}
