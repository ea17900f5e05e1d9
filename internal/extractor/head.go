package extractor

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

/*
Responsibilities
- Parse a possibly truncated HTML prefix into head metadata
- Tolerate missing or unclosed tags
- Never fail hard: a malformed document yields empty HeadData

Extraction Strategy
- Preferred path parses a DOM with goquery (x/net/html underneath, which
  recovers from truncation the way browsers do)
- Regex fallback covers inputs the DOM parser rejects outright

The parser never fetches; it only reads bytes handed to it.
*/

// ParseHead extracts title, charset, meta tags, link relations, JSON-LD
// blocks, and the <html lang> attribute from an HTML prefix.
func ParseHead(src string) HeadData {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return parseHeadRegex(src)
	}

	var info HeadData

	if title := doc.Find("title").First(); title.Length() > 0 {
		info.Title = strings.TrimSpace(title.Text())
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key, ok := s.Attr("name")
		if !ok {
			key, ok = s.Attr("property")
		}
		if !ok {
			key, ok = s.Attr("http-equiv")
		}
		if ok && key != "" {
			content, _ := s.Attr("content")
			if info.Meta == nil {
				info.Meta = make(map[string]string)
			}
			info.Meta[strings.ToLower(key)] = content
			return
		}
		if charset, ok := s.Attr("charset"); ok {
			info.Charset = strings.ToLower(charset)
		}
	})

	if info.Charset == "" {
		info.Charset = charsetFromContentType(info.Meta["content-type"])
	}

	doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		rel, ok := s.Attr("rel")
		rel = strings.ToLower(strings.TrimSpace(rel))
		if !ok || rel == "" {
			return
		}
		entry := LinkEntry{}
		entry.Href, _ = s.Attr("href")
		entry.As, _ = s.Attr("as")
		entry.Type, _ = s.Attr("type")
		entry.Hreflang, _ = s.Attr("hreflang")
		if info.Link == nil {
			info.Link = make(map[string][]LinkEntry)
		}
		info.Link[rel] = append(info.Link[rel], entry)
	})

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		var block any
		if err := json.Unmarshal([]byte(text), &block); err != nil {
			// invalid blocks are skipped individually
			return
		}
		info.JSONLD = append(info.JSONLD, block)
	})

	if lang, ok := doc.Find("html").Attr("lang"); ok {
		info.Lang = lang
	}

	return info
}

// charsetFromContentType pulls the charset parameter out of a
// "text/html; charset=utf-8" style value.
func charsetFromContentType(contentType string) string {
	lower := strings.ToLower(contentType)
	idx := strings.Index(lower, "charset=")
	if idx < 0 {
		return ""
	}
	value := lower[idx+len("charset="):]
	if i := strings.IndexAny(value, "; \t"); i >= 0 {
		value = value[:i]
	}
	return strings.Trim(value, `"'`)
}
