package extractor_test

import (
	"strings"
	"testing"

	"github.com/rohmanhakim/url-seeder/internal/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHead_Title(t *testing.T) {
	head := extractor.ParseHead(`<html><head><title>  Cheap flights to Paris </title></head></html>`)
	assert.Equal(t, "Cheap flights to Paris", head.Title)
}

func TestParseHead_MetaByNamePropertyHTTPEquiv(t *testing.T) {
	src := `<html><head>
		<meta name="Description" content="Book tickets to Paris">
		<meta property="og:title" content="Paris Flights">
		<meta http-equiv="Refresh" content="30">
	</head></html>`

	head := extractor.ParseHead(src)

	assert.Equal(t, "Book tickets to Paris", head.Meta["description"])
	assert.Equal(t, "Paris Flights", head.Meta["og:title"])
	assert.Equal(t, "30", head.Meta["refresh"])
}

func TestParseHead_CharsetFromMetaCharset(t *testing.T) {
	head := extractor.ParseHead(`<html><head><meta charset="UTF-8"></head></html>`)
	assert.Equal(t, "utf-8", head.Charset)
}

func TestParseHead_CharsetFromHTTPEquivContentType(t *testing.T) {
	src := `<html><head><meta http-equiv="Content-Type" content="text/html; charset=ISO-8859-1"></head></html>`
	head := extractor.ParseHead(src)
	assert.Equal(t, "iso-8859-1", head.Charset)
}

func TestParseHead_LinksGroupedByRel(t *testing.T) {
	src := `<html><head>
		<link rel="stylesheet" href="/style.css" type="text/css">
		<link rel="Alternate" href="/fr" hreflang="fr">
		<link rel="alternate" href="/de" hreflang="de">
		<link rel="preload" href="/font.woff2" as="font" type="font/woff2">
		<link href="/no-rel.css">
	</head></html>`

	head := extractor.ParseHead(src)

	require.Len(t, head.Link["stylesheet"], 1)
	assert.Equal(t, "/style.css", head.Link["stylesheet"][0].Href)
	assert.Equal(t, "text/css", head.Link["stylesheet"][0].Type)

	require.Len(t, head.Link["alternate"], 2)
	assert.Equal(t, "fr", head.Link["alternate"][0].Hreflang)
	assert.Equal(t, "de", head.Link["alternate"][1].Hreflang)

	require.Len(t, head.Link["preload"], 1)
	assert.Equal(t, "font", head.Link["preload"][0].As)

	_, hasEmptyRel := head.Link[""]
	assert.False(t, hasEmptyRel)
}

func TestParseHead_JSONLD(t *testing.T) {
	src := `<html><head>
		<script type="application/ld+json">{"@type":"Article","name":"Paris Guide"}</script>
		<script type="application/ld+json">not json at all</script>
		<script type="application/ld+json">[{"name":"First"},{"name":"Second"}]</script>
	</head></html>`

	head := extractor.ParseHead(src)

	// the invalid block is skipped, the valid ones survive
	require.Len(t, head.JSONLD, 2)

	first, ok := head.JSONLD[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Paris Guide", first["name"])

	second, ok := head.JSONLD[1].([]any)
	require.True(t, ok)
	assert.Len(t, second, 2)
}

func TestParseHead_HTMLLang(t *testing.T) {
	head := extractor.ParseHead(`<html lang="en-US"><head><title>x</title></head></html>`)
	assert.Equal(t, "en-US", head.Lang)
}

func TestParseHead_TruncatedPrefix(t *testing.T) {
	// A head prefix cut right after </head>, no body, no closing html
	src := `<html lang="fr"><head><title>Boulangerie</title><meta name="description" content="Pain frais"></head>`

	head := extractor.ParseHead(src)

	assert.Equal(t, "Boulangerie", head.Title)
	assert.Equal(t, "Pain frais", head.Meta["description"])
	assert.Equal(t, "fr", head.Lang)
}

func TestParseHead_TruncatedMidTag(t *testing.T) {
	// Hard byte-cap truncation can cut inside a tag; the parser must not panic
	src := `<html><head><title>Partial</title><meta name="descr`

	head := extractor.ParseHead(src)

	assert.Equal(t, "Partial", head.Title)
}

func TestParseHead_EmptyInput(t *testing.T) {
	head := extractor.ParseHead("")
	assert.True(t, head.IsEmpty())
}

func TestParseHead_GarbageInput(t *testing.T) {
	head := extractor.ParseHead(strings.Repeat("\x00\x01garbage ", 100))
	assert.True(t, head.IsEmpty())
}

func TestHeadData_IsEmpty(t *testing.T) {
	assert.True(t, extractor.HeadData{}.IsEmpty())
	assert.False(t, extractor.HeadData{Title: "x"}.IsEmpty())
	assert.False(t, extractor.HeadData{Lang: "en"}.IsEmpty())
	assert.False(t, extractor.HeadData{Meta: map[string]string{"a": "b"}}.IsEmpty())
}
