package sources

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/rohmanhakim/url-seeder/internal/cache"
	"github.com/rohmanhakim/url-seeder/internal/config"
	"github.com/rohmanhakim/url-seeder/internal/fetcher"
	"github.com/rohmanhakim/url-seeder/internal/frontier"
	"github.com/rohmanhakim/url-seeder/internal/metadata"
	"github.com/rohmanhakim/url-seeder/internal/pattern"
	"github.com/rohmanhakim/url-seeder/internal/robots"
	"github.com/rohmanhakim/url-seeder/pkg/failure"
	"github.com/rohmanhakim/url-seeder/pkg/urlutil"
)

/*
Sitemap source

1. Probe the default sitemap locations over https, then http.
2. If none resolve, fall back to the Sitemap directives in robots.txt.
3. Recurse into sitemap indexes; gunzip .gz documents.
4. Yield only URLs that match the pattern; cache every URL found.

Documents with or without the standard sitemap namespace are accepted, as
are arbitrary custom namespaces — element matching goes by local name.
Network and parse errors on one sitemap are logged and skipped; siblings
continue.
*/

var sitemapProbeSuffixes = []string{"/sitemap.xml", "/sitemap_index.xml"}

// Local-name matching keeps namespaced and namespace-free documents on the
// same code path.
const (
	xpathIndexLocs = "//*[local-name()='sitemap']/*[local-name()='loc']"
	xpathURLLocs   = "//*[local-name()='url']/*[local-name()='loc']"
)

type Sitemaps struct {
	metadataSink metadata.MetadataSink
	client       *fetcher.Client
	cache        *cache.DiskCache
	hints        robots.HintFetcher
	schemes      []string
}

func NewSitemaps(
	metadataSink metadata.MetadataSink,
	client *fetcher.Client,
	diskCache *cache.DiskCache,
	hints robots.HintFetcher,
) *Sitemaps {
	return &Sitemaps{
		metadataSink: metadataSink,
		client:       client,
		cache:        diskCache,
		hints:        hints,
		schemes:      []string{"https", "http"},
	}
}

func (s *Sitemaps) Name() string {
	return config.SourceSitemap
}

// SetSchemesForTest overrides the probe schemes.
// This is a test helper method.
func (s *Sitemaps) SetSchemesForTest(schemes ...string) {
	s.schemes = schemes
}

func (s *Sitemaps) Discover(
	ctx context.Context,
	domain string,
	matcher pattern.Matcher,
	force bool,
	emit EmitFunc,
) failure.ClassifiedError {
	listPath := s.cache.SourceListPath(s.Name(), urlutil.NormalizeDomain(domain), matcher.Raw())

	if !force {
		if f, ok := s.cache.OpenSourceList(listPath); ok {
			defer f.Close()
			s.emitCached(f, matcher, emit)
			return nil
		}
	}

	host := urlutil.HostForProbe(domain)

	// 1. direct sitemap probe, https preferred
	for _, scheme := range s.schemes {
		for _, suffix := range sitemapProbeSuffixes {
			probe := fmt.Sprintf("%s://%s%s", scheme, host, suffix)
			resolved, ok := s.client.ResolveHead(ctx, probe, false)
			if !ok {
				continue
			}
			s.walkAll(ctx, []string{resolved}, listPath, matcher, emit)
			return nil
		}
	}

	// 2. robots.txt fallback
	hintURLs := s.hints.SitemapHints(ctx, domain)
	if len(hintURLs) == 0 {
		return nil
	}
	s.walkAll(ctx, hintURLs, listPath, matcher, emit)
	return nil
}

// walkAll iterates a set of root sitemaps into the cache list while
// emitting pattern matches. An early stop aborts the cache write so a
// partial list is never mistaken for a complete one.
func (s *Sitemaps) walkAll(ctx context.Context, roots []string, listPath string, matcher pattern.Matcher, emit EmitFunc) {
	writer := s.cache.NewListWriter(listPath)
	visited := frontier.NewSet[string]()

	for _, root := range roots {
		if s.walk(ctx, root, visited, func(u string) bool {
			writer.Append(u)
			if matcher.Matches(u) {
				return emit(u)
			}
			return true
		}) {
			writer.Abort()
			return
		}
	}
	writer.Commit()
}

// walk recurses through one sitemap document. Returns true when the
// consumer asked to stop.
func (s *Sitemaps) walk(ctx context.Context, sitemapURL string, visited frontier.Set[string], yield func(string) bool) (stopped bool) {
	if !visited.AddIfAbsent(sitemapURL) {
		return false
	}

	result, err := s.client.Get(ctx, sitemapURL, fetcher.SitemapTimeout)
	if err != nil {
		s.record("Sitemaps.walk", sitemapURL, metadata.CauseNetworkFailure, fmt.Sprintf("failed to fetch sitemap: %v", err))
		return false
	}

	data := result.Body()
	if strings.HasSuffix(sitemapURL, ".gz") {
		decoded, gzErr := gunzip(data)
		if gzErr != nil {
			s.record("Sitemaps.walk", sitemapURL, metadata.CauseContentInvalid, fmt.Sprintf("failed to gunzip sitemap: %v", gzErr))
			return false
		}
		data = decoded
	}

	doc, parseErr := xmlquery.Parse(bytes.NewReader(data))
	if parseErr != nil {
		s.record("Sitemaps.walk", sitemapURL, metadata.CauseContentInvalid, fmt.Sprintf("failed to parse sitemap: %v", parseErr))
		return false
	}

	// nested indexes first, matching document order of the index file
	for _, node := range xmlquery.Find(doc, xpathIndexLocs) {
		loc := strings.TrimSpace(node.InnerText())
		if loc == "" {
			continue
		}
		if s.walk(ctx, urlutil.JoinReference(sitemapURL, loc), visited, yield) {
			return true
		}
	}

	for _, node := range xmlquery.Find(doc, xpathURLLocs) {
		loc := strings.TrimSpace(node.InnerText())
		if loc == "" {
			continue
		}
		if !yield(urlutil.JoinReference(sitemapURL, loc)) {
			return true
		}
	}
	return false
}

func (s *Sitemaps) emitCached(f io.Reader, matcher pattern.Matcher, emit EmitFunc) {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		u := strings.TrimSpace(scanner.Text())
		if u == "" {
			continue
		}
		if matcher.Matches(u) {
			if !emit(u) {
				return
			}
		}
	}
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func (s *Sitemaps) record(method string, url string, cause metadata.ErrorCause, message string) {
	if s.metadataSink == nil {
		return
	}
	s.metadataSink.RecordError(
		time.Now(),
		"sources",
		method,
		cause,
		message,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, url),
			metadata.NewAttr(metadata.AttrSource, s.Name()),
		},
	)
}
