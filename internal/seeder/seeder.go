package seeder

import (
	"context"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rohmanhakim/url-seeder/internal/cache"
	"github.com/rohmanhakim/url-seeder/internal/config"
	"github.com/rohmanhakim/url-seeder/internal/fetcher"
	"github.com/rohmanhakim/url-seeder/internal/metadata"
	"github.com/rohmanhakim/url-seeder/internal/pattern"
	"github.com/rohmanhakim/url-seeder/internal/rank"
	"github.com/rohmanhakim/url-seeder/internal/robots"
	"github.com/rohmanhakim/url-seeder/internal/sources"
	"github.com/rohmanhakim/url-seeder/pkg/timeutil"
)

/*
 Seeder is the sole control-plane authority of a seeding call.

 Determinism and admission guarantees:
 - The producer is the ONLY component that decides whether a URL enters
   the queue; dedup and pattern filtering happen before enqueueing.
 - Workers validate whatever the queue hands them; they never re-filter.
 - Sources may detect and classify failure, but never decide retry,
   continuation, or abortion of the pipeline.

 Metadata emission is observational only and MUST NOT influence
 scheduling, rate limiting, or termination.

 Seeder Responsibilities:
 - Own the shared HTTP client, cache, and sources across calls
 - Build one queue + producer + worker pool per call and tear it down
   before returning
 - Enforce max_urls, the rate limit, and cancellation
 - Run the ranker after the workers have exited
*/

type Seeder struct {
	logger       zerolog.Logger
	metadataSink metadata.MetadataSink
	client       *fetcher.Client
	cache        *cache.DiskCache
	cc           *sources.CommonCrawl
	sitemaps     *sources.Sitemaps
}

type options struct {
	httpClient    *http.Client
	baseDirectory string
	ttl           time.Duration
	logger        *zerolog.Logger
}

type Option func(*options)

// WithHTTPClient injects a caller-owned HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) { o.httpClient = httpClient }
}

// WithBaseDirectory overrides the cache base directory, bypassing the
// CRAWL4_AI_BASE_DIRECTORY environment lookup.
func WithBaseDirectory(dir string) Option {
	return func(o *options) { o.baseDirectory = dir }
}

// WithTTL overrides the cache freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithLogger injects the logger every component records through.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

// New builds a seeder instance. The instance owns its HTTP client and
// cache tree and is safe for concurrent calls.
func New(opts ...Option) (*Seeder, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	baseDir := o.baseDirectory
	if baseDir == "" {
		resolved, err := config.ResolveBaseDirectory()
		if err != nil {
			return nil, err
		}
		baseDir = resolved
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel)
	if o.logger != nil {
		logger = *o.logger
	}

	recorder := metadata.NewRecorder(logger)
	sink := &recorder

	var client *fetcher.Client
	if o.httpClient != nil {
		client = fetcher.NewClientWith(sink, o.httpClient)
	} else {
		client = fetcher.NewClient(sink)
	}

	diskCache := cache.New(sink, baseDir, o.ttl)
	hints := robots.NewHintFetcher(sink, client)

	return &Seeder{
		logger:       logger,
		metadataSink: sink,
		client:       client,
		cache:        diskCache,
		cc:           sources.NewCommonCrawl(sink, client, diskCache, timeutil.NewRealSleeper()),
		sitemaps:     sources.NewSitemaps(sink, client, diskCache, hints),
	}, nil
}

// CommonCrawlForTest exposes the cc source so tests can point it at a
// fake index endpoint. This is a test helper method.
func (s *Seeder) CommonCrawlForTest() *sources.CommonCrawl {
	return s.cc
}

// SitemapsForTest exposes the sitemap source so tests can override probe
// schemes. This is a test helper method.
func (s *Seeder) SitemapsForTest() *sources.Sitemaps {
	return s.sitemaps
}

// URLs discovers, validates, and optionally ranks candidate URLs for one
// domain. Per-URL failures never fail the call; it errors only on invalid
// configuration, failure to resolve the Common Crawl index id when cc is a
// source, producer failure before any URL was yielded, or cancellation.
func (s *Seeder) URLs(ctx context.Context, domain string, cfg config.SeedingConfig) ([]URLRecord, error) {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	matcher, err := pattern.Compile(cfg.Pattern())
	if err != nil {
		return nil, err
	}

	if cfg.HasSource(config.SourceCommonCrawl) {
		if _, indexErr := s.cc.EnsureIndex(ctx); indexErr != nil {
			return nil, indexErr
		}
	}

	s.callLogger(cfg).Info().
		Str("domain", domain).
		Str("source", cfg.Source()).
		Msg("starting URL seeding")

	results, pipelineErr := s.runPipeline(ctx, domain, matcher, cfg)
	if pipelineErr != nil {
		return nil, pipelineErr
	}

	if cfg.Query() != "" && cfg.ExtractHead() && cfg.ScoringMethod() == config.ScoringMethodBM25 {
		results = s.applyScoring(results, cfg)
	} else if cfg.Query() != "" && !cfg.ExtractHead() {
		s.callLogger(cfg).Warn().
			Str("domain", domain).
			Msg("query provided but extract_head is false; enable head extraction for relevance scoring")
	}

	if cfg.MaxURLs() > 0 && len(results) > cfg.MaxURLs() {
		results = results[:cfg.MaxURLs()]
	}

	totalErrors := 0
	for _, r := range results {
		if r.Status == StatusNotValid {
			totalErrors++
		}
	}
	s.metadataSink.RecordSeedingStats(domain, len(results), totalErrors, time.Since(start))

	return results, nil
}

// ManyURLs runs URLs for each domain concurrently. Every domain gets its
// own queue, workers, and rate limiter; nothing is shared across domains
// except the client and caches. The first error is returned alongside the
// results that did complete.
func (s *Seeder) ManyURLs(ctx context.Context, domains []string, cfg config.SeedingConfig) (map[string][]URLRecord, error) {
	results := make(map[string][]URLRecord, len(domains))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for _, domain := range domains {
		wg.Add(1)
		go func(domain string) {
			defer wg.Done()
			records, err := s.URLs(ctx, domain, cfg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[domain] = records
		}(domain)
	}
	wg.Wait()

	return results, firstErr
}

// callLogger bumps verbosity for one call without touching the instance
// logger other calls share.
func (s *Seeder) callLogger(cfg config.SeedingConfig) *zerolog.Logger {
	if cfg.Verbose() {
		l := s.logger.Level(zerolog.DebugLevel)
		return &l
	}
	return &s.logger
}

// applyScoring attaches normalized BM25 scores, applies the threshold,
// and sorts descending. Records whose head assembles to empty text score 0.
func (s *Seeder) applyScoring(results []URLRecord, cfg config.SeedingConfig) []URLRecord {
	documents := make([]string, 0, len(results))
	validIndices := make([]int, 0, len(results))
	for i, r := range results {
		if r.HeadData.IsEmpty() {
			continue
		}
		text := rank.AssembleText(r.HeadData)
		if text == "" {
			continue
		}
		documents = append(documents, text)
		validIndices = append(validIndices, i)
	}

	for i := range results {
		zero := 0.0
		results[i].RelevanceScore = &zero
	}
	if len(documents) > 0 {
		scores := rank.Score(cfg.Query(), documents)
		for pos, idx := range validIndices {
			score := scores[pos]
			results[idx].RelevanceScore = &score
		}
	}

	if threshold := cfg.ScoreThreshold(); threshold != nil {
		kept := results[:0]
		for _, r := range results {
			if *r.RelevanceScore >= *threshold {
				kept = append(kept, r)
			}
		}
		results = kept
	}

	sort.SliceStable(results, func(i, j int) bool {
		return *results[i].RelevanceScore > *results[j].RelevanceScore
	})
	return results
}
