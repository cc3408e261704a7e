package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"recsync/internal/content"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>?`)
	charRefPattern = regexp.MustCompile(`&#([0-9]{1,3});`)
	spaceRun       = regexp.MustCompile(` {2,}`)
	newlines       = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
)

// CleanHTML reduces rich text to plain text. Steps run in order: tags are
// replaced by a space, numeric character references are decoded, &nbsp;
// becomes a space and newlines become spaces. Space runs collapse to one.
func CleanHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = charRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		n, err := strconv.Atoi(ref[2 : len(ref)-1])
		if err != nil {
			return ref
		}
		return string(rune(n))
	})
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = newlines.Replace(s)
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

// MapItem flattens a content item into an engine item: the five system
// properties plus one value per element, keyed by element codename.
func MapItem(item content.Item) (Item, error) {
	values := make(map[string]any, len(item.Elements)+5)
	values[PropCodename] = item.System.Codename
	values[PropLanguage] = item.System.Language
	values[PropLastModified] = item.System.LastModified
	values[PropType] = item.System.Type
	values[PropCollection] = item.System.Collection

	for codename, el := range item.Elements {
		v, err := elementValue(el)
		if err != nil {
			return Item{}, fmt.Errorf("element %q: %w", codename, err)
		}
		values[codename] = v
	}

	return Item{
		ID:     ItemID(item.System.ID, item.System.Language),
		Values: values,
	}, nil
}

func elementValue(el content.Element) (any, error) {
	switch el.Type {
	case content.KindRichText:
		html, err := el.Text()
		if err != nil {
			return nil, err
		}
		return CleanHTML(html), nil

	case content.KindModularContent:
		linked, err := el.LinkedCodenames()
		if err != nil {
			return nil, err
		}
		return nonNil(linked), nil

	case content.KindTaxonomy:
		terms, err := el.Terms()
		if err != nil {
			return nil, err
		}
		codenames := make([]string, 0, len(terms))
		for _, t := range terms {
			codenames = append(codenames, t.Codename)
		}
		return codenames, nil

	case content.KindAsset:
		assets, err := el.Assets()
		if err != nil {
			return nil, err
		}
		urls := make([]string, 0, len(assets))
		for _, a := range assets {
			urls = append(urls, a.URL)
		}
		return urls, nil

	default:
		return el.Raw()
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
