package catalog

import "recsync/internal/content"

var kindTypes = map[content.ElementKind]DataType{
	content.KindText:           TypeString,
	content.KindRichText:       TypeString,
	content.KindNumber:         TypeInt,
	content.KindDateTime:       TypeTimestamp,
	content.KindAsset:          TypeImageList,
	content.KindModularContent: TypeSet,
	content.KindTaxonomy:       TypeSet,
	content.KindURLSlug:        TypeString,
	content.KindMultipleChoice: TypeSet,
	content.KindCustom:         TypeString,
}

// SystemProperties are declared before any element property.
func SystemProperties() []Property {
	return []Property{
		{Name: PropCodename, Type: TypeString},
		{Name: PropLanguage, Type: TypeString},
		{Name: PropLastModified, Type: TypeTimestamp},
		{Name: PropCollection, Type: TypeString},
		{Name: PropType, Type: TypeString},
	}
}

// TypeFor returns the property type an element kind is stored as.
func TypeFor(kind content.ElementKind) (DataType, bool) {
	t, ok := kindTypes[kind]
	return t, ok
}

// Schema returns the property declarations needed before syncing items of a
// content type. Elements whose kind has no property type are skipped.
func Schema(defs []content.ElementDefinition) []Property {
	props := SystemProperties()
	for _, def := range defs {
		t, ok := TypeFor(def.Type)
		if !ok || def.Codename == "" {
			continue
		}
		props = append(props, Property{Name: def.Codename, Type: t})
	}
	return props
}
