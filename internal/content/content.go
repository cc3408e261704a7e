package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// ElementKind is the closed set of element types the content source emits.
type ElementKind string

const (
	KindText           ElementKind = "text"
	KindRichText       ElementKind = "rich_text"
	KindNumber         ElementKind = "number"
	KindDateTime       ElementKind = "date_time"
	KindAsset          ElementKind = "asset"
	KindModularContent ElementKind = "modular_content"
	KindTaxonomy       ElementKind = "taxonomy"
	KindURLSlug        ElementKind = "url_slug"
	KindMultipleChoice ElementKind = "multiple_choice"
	KindCustom         ElementKind = "custom"
)

type System struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Codename     string `json:"codename"`
	Language     string `json:"language"`
	Type         string `json:"type"`
	Collection   string `json:"collection"`
	LastModified string `json:"last_modified"`
}

// Item is a content item as delivered by the content source.
type Item struct {
	System   System             `json:"system"`
	Elements map[string]Element `json:"elements"`
}

// Element is one typed field of an item. Value holds the kind specific raw
// JSON and is decoded on demand through the typed accessors.
type Element struct {
	Type  ElementKind     `json:"type"`
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type Asset struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
	Width       *int   `json:"width"`
	Height      *int   `json:"height"`
}

type TaxonomyTerm struct {
	Name     string `json:"name"`
	Codename string `json:"codename"`
}

func (e Element) isNull() bool {
	v := bytes.TrimSpace(e.Value)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

func (e Element) decode(dst any) error {
	if e.isNull() {
		return nil
	}
	if err := json.Unmarshal(e.Value, dst); err != nil {
		return fmt.Errorf("decode %s element: %w", e.Type, err)
	}
	return nil
}

// Text returns the string value of text-like elements. Null yields "".
func (e Element) Text() (string, error) {
	var s string
	err := e.decode(&s)
	return s, err
}

func (e Element) Assets() ([]Asset, error) {
	var assets []Asset
	err := e.decode(&assets)
	return assets, err
}

func (e Element) Terms() ([]TaxonomyTerm, error) {
	var terms []TaxonomyTerm
	err := e.decode(&terms)
	return terms, err
}

// LinkedCodenames returns the codenames of the linked items. The delivery
// API lists linked items by codename only.
func (e Element) LinkedCodenames() ([]string, error) {
	var codenames []string
	err := e.decode(&codenames)
	return codenames, err
}

// Raw decodes the value into plain Go values (maps, slices, float64, ...).
func (e Element) Raw() (any, error) {
	var v any
	err := e.decode(&v)
	return v, err
}

// Type describes a content type and its element definitions.
type Type struct {
	System   TypeSystem                   `json:"system"`
	Elements map[string]ElementDefinition `json:"elements"`
}

type TypeSystem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Codename     string `json:"codename"`
	LastModified string `json:"last_modified"`
}

type ElementDefinition struct {
	Codename string      `json:"codename"`
	Type     ElementKind `json:"type"`
	Name     string      `json:"name"`
}

// Definitions returns the element definitions ordered by codename, with the
// codename filled in from the map key.
func (t *Type) Definitions() []ElementDefinition {
	defs := make([]ElementDefinition, 0, len(t.Elements))
	for codename, def := range t.Elements {
		def.Codename = codename
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Codename < defs[j].Codename })
	return defs
}
