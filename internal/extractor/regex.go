package extractor

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Regex fallback for inputs the DOM parser rejects. Mirrors the DOM path's
// output shape with looser attribute handling.

var (
	metaRx    = regexp.MustCompile(`(?i)<meta\s+[^>]*?(?:name|property|http-equiv)\s*=\s*["']?([^"' >]+)[^>]*?content\s*=\s*["']?([^"'>]*)["']?`)
	charsetRx = regexp.MustCompile(`(?i)<meta\s+[^>]*charset\s*=\s*["']?([^"' >]+)`)
	titleRx   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	linkRx    = regexp.MustCompile(`(?i)<link\s+[^>]*rel\s*=\s*["']?([^"' >]+)[^>]*href\s*=\s*["']?([^"' >]+)`)
	jsonldRx  = regexp.MustCompile(`(?is)<script[^>]*type\s*=\s*["']application/ld\+json["'][^>]*>(.*?)</script>`)
	langRx    = regexp.MustCompile(`(?i)<html[^>]*\slang\s*=\s*["']?([^"' >]+)`)
)

func parseHeadRegex(src string) HeadData {
	var info HeadData

	if m := titleRx.FindStringSubmatch(src); m != nil {
		info.Title = strings.TrimSpace(m[1])
	}
	for _, m := range metaRx.FindAllStringSubmatch(src, -1) {
		if info.Meta == nil {
			info.Meta = make(map[string]string)
		}
		info.Meta[strings.ToLower(m[1])] = m[2]
	}
	if m := charsetRx.FindStringSubmatch(src); m != nil {
		info.Charset = strings.ToLower(m[1])
	}
	if info.Charset == "" {
		info.Charset = charsetFromContentType(info.Meta["content-type"])
	}
	for _, m := range linkRx.FindAllStringSubmatch(src, -1) {
		if info.Link == nil {
			info.Link = make(map[string][]LinkEntry)
		}
		rel := strings.ToLower(m[1])
		info.Link[rel] = append(info.Link[rel], LinkEntry{Href: m[2]})
	}
	for _, m := range jsonldRx.FindAllStringSubmatch(src, -1) {
		var block any
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &block); err != nil {
			continue
		}
		info.JSONLD = append(info.JSONLD, block)
	}
	if m := langRx.FindStringSubmatch(src); m != nil {
		info.Lang = m[1]
	}

	return info
}
