package rank

import (
	"fmt"
	"strings"

	"github.com/rohmanhakim/url-seeder/internal/extractor"
)

// Field order is part of the contract: title first, then standard meta,
// Open Graph, Twitter Card, Dublin Core, and finally JSON-LD text.
var (
	standardMetaKeys = []string{"description", "keywords", "author", "subject", "summary", "abstract"}
	openGraphKeys    = []string{"og:title", "og:description", "og:site_name", "article:tag"}
	twitterCardKeys  = []string{"twitter:title", "twitter:description", "twitter:image:alt"}
	dublinCoreKeys   = []string{"dc.title", "dc.description", "dc.subject", "dc.creator"}

	jsonldTextFields = []string{"name", "headline", "description", "abstract", "keywords"}
)

// AssembleText flattens head metadata into the scoring document: every
// known descriptive field, space-joined, missing ones skipped.
func AssembleText(head extractor.HeadData) string {
	var parts []string

	if head.Title != "" {
		parts = append(parts, head.Title)
	}

	for _, keys := range [][]string{standardMetaKeys, openGraphKeys, twitterCardKeys, dublinCoreKeys} {
		for _, key := range keys {
			if v := head.Meta[key]; v != "" {
				parts = append(parts, v)
			}
		}
	}

	for _, block := range head.JSONLD {
		obj, ok := block.(map[string]any)
		if !ok {
			continue
		}
		parts = append(parts, jsonldTextParts(obj)...)

		graph, ok := obj["@graph"].([]any)
		if !ok {
			continue
		}
		for _, item := range graph {
			node, ok := item.(map[string]any)
			if !ok {
				continue
			}
			// graph nodes carry the same descriptive fields as top-level blocks
			parts = append(parts, jsonldTextParts(node)...)
		}
	}

	return strings.Join(parts, " ")
}

func jsonldTextParts(obj map[string]any) []string {
	var parts []string
	for _, field := range jsonldTextFields {
		switch v := obj[field].(type) {
		case string:
			if v != "" {
				parts = append(parts, v)
			}
		case []any:
			for _, item := range v {
				if item == nil {
					continue
				}
				if s, ok := item.(string); ok {
					if s != "" {
						parts = append(parts, s)
					}
					continue
				}
				parts = append(parts, fmt.Sprintf("%v", item))
			}
		}
	}
	return parts
}
