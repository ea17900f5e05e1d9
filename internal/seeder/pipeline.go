package seeder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rohmanhakim/url-seeder/internal/config"
	"github.com/rohmanhakim/url-seeder/internal/frontier"
	"github.com/rohmanhakim/url-seeder/internal/metadata"
	"github.com/rohmanhakim/url-seeder/internal/pattern"
	"github.com/rohmanhakim/url-seeder/internal/sources"
	"github.com/rohmanhakim/url-seeder/pkg/failure"
	"github.com/rohmanhakim/url-seeder/pkg/limiter"
)

/*
 Pipeline shape

 One producer drains the configured sources in a fixed order (sitemap
 first, then cc), deduplicates, and pushes matches into a bounded queue.
 The queue capacity equals the worker count, so a slow validator naturally
 backpressures discovery. Workers drain the queue; once max_urls is
 reached they set the stop flag and discard the remainder so the producer
 is never blocked on a full queue.

 Ownership: the queue, the dedup set, the stop flag, and the limiter all
 live and die with one call.
*/

func (s *Seeder) runPipeline(
	ctx context.Context,
	domain string,
	matcher pattern.Matcher,
	cfg config.SeedingConfig,
) ([]URLRecord, error) {
	queue := make(chan string, cfg.Concurrency())

	var (
		stop        atomic.Bool
		yielded     atomic.Int64
		producerErr failure.ClassifiedError

		resultsMu sync.Mutex
		results   []URLRecord
	)

	rateLimiter := limiter.NewHitsPerSecond(cfg.HitsPerSec())

	maxReached := func() bool {
		if cfg.MaxURLs() <= 0 {
			return false
		}
		resultsMu.Lock()
		defer resultsMu.Unlock()
		return len(results) >= cfg.MaxURLs()
	}

	// ── producer ──
	go func() {
		defer close(queue)

		// the dedup set is touched only here
		seen := frontier.NewSet[string]()
		emit := func(u string) bool {
			if stop.Load() || ctx.Err() != nil {
				return false
			}
			if !seen.AddIfAbsent(u) {
				return true
			}
			select {
			case queue <- u:
				yielded.Add(1)
				return true
			case <-ctx.Done():
				return false
			}
		}

		for _, src := range s.orderedSources(cfg) {
			if err := src.Discover(ctx, domain, matcher, cfg.Force(), emit); err != nil {
				producerErr = err
				s.metadataSink.RecordError(
					time.Now(),
					"seeder",
					"runPipeline",
					metadata.CauseNetworkFailure,
					err.Error(),
					[]metadata.Attribute{
						metadata.NewAttr(metadata.AttrDomain, domain),
						metadata.NewAttr(metadata.AttrSource, src.Name()),
					},
				)
				return
			}
			if stop.Load() || ctx.Err() != nil {
				return
			}
		}
	}()

	// ── workers ──
	var wg sync.WaitGroup
	for i := 0; i < cfg.Concurrency(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range queue {
				if stop.Load() || ctx.Err() != nil {
					// drain and discard; the producer must never block
					continue
				}
				if maxReached() {
					stop.Store(true)
					continue
				}
				if rateLimiter != nil {
					if err := rateLimiter.Wait(ctx); err != nil {
						continue
					}
				}

				record := s.validate(ctx, url, cfg)

				resultsMu.Lock()
				if cfg.MaxURLs() > 0 && len(results) >= cfg.MaxURLs() {
					stop.Store(true)
				} else {
					results = append(results, record)
				}
				resultsMu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, &SeederError{
			Message: ctx.Err().Error(),
			Cause:   ErrCauseCancelled,
			Wrapped: ctx.Err(),
		}
	}

	// a producer failure is fatal only when nothing at all was yielded;
	// partial results are returned whenever the pipeline made progress
	if producerErr != nil && yielded.Load() == 0 {
		return nil, &SeederError{
			Message: producerErr.Error(),
			Cause:   ErrCauseProducerFailed,
			Wrapped: producerErr,
		}
	}

	return results, nil
}

// orderedSources returns the configured sources in drain order: sitemap
// is fully drained before cc begins.
func (s *Seeder) orderedSources(cfg config.SeedingConfig) []sources.Source {
	var out []sources.Source
	if cfg.HasSource(config.SourceSitemap) {
		out = append(out, s.sitemaps)
	}
	if cfg.HasSource(config.SourceCommonCrawl) {
		out = append(out, s.cc)
	}
	return out
}
