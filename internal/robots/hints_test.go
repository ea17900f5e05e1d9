package robots_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rohmanhakim/url-seeder/internal/fetcher"
	"github.com/rohmanhakim/url-seeder/internal/robots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hintFetcherFor(t *testing.T, srv *httptest.Server) (*robots.HintFetcher, string) {
	t.Helper()
	client := fetcher.NewClientWith(nil, &http.Client{})
	h := robots.NewHintFetcher(nil, client)
	h.SetSchemesForTest("http")

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return &h, u.Host
}

func TestSitemapHints_ReturnsDirectivesInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/robots.txt", r.URL.Path)
		fmt.Fprint(w, "User-agent: *\nDisallow: /admin\nSitemap: https://example.com/sitemap-a.xml\nsitemap: https://example.com/sitemap-b.xml\n")
	}))
	defer srv.Close()

	h, host := hintFetcherFor(t, srv)
	hints := h.SitemapHints(context.Background(), host)

	assert.Equal(t, []string{
		"https://example.com/sitemap-a.xml",
		"https://example.com/sitemap-b.xml",
	}, hints)
}

func TestSitemapHints_NoDirectives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow:\n")
	}))
	defer srv.Close()

	h, host := hintFetcherFor(t, srv)
	assert.Empty(t, h.SitemapHints(context.Background(), host))
}

func TestSitemapHints_MissingRobots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	h, host := hintFetcherFor(t, srv)
	assert.Empty(t, h.SitemapHints(context.Background(), host))
}

func TestSitemapHints_UnreachableHost(t *testing.T) {
	client := fetcher.NewClientWith(nil, &http.Client{})
	h := robots.NewHintFetcher(nil, client)
	h.SetSchemesForTest("http")

	assert.Empty(t, h.SitemapHints(context.Background(), "127.0.0.1:1"))
}
