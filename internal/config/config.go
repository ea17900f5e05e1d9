package config

import (
	"fmt"
	"strings"
)

const (
	SourceCommonCrawl = "cc"
	SourceSitemap     = "sitemap"

	ScoringMethodBM25 = "bm25"

	// MaxURLsUnlimited disables the result cap.
	MaxURLsUnlimited = -1
)

type SeedingConfig struct {
	//===============
	//  Discovery
	//===============
	// Shell-style glob applied to every discovered URL
	pattern string
	// One or more of "cc" and "sitemap", combined with '+'
	source string
	// Bypass every cache layer and refetch
	force bool

	//===============
	// Validation
	//===============
	// Probe each URL with a HEAD request
	liveCheck bool
	// Download a bounded prefix of each URL and parse its document head
	extractHead bool
	// When resolving a redirect, require the target itself to answer 2xx
	verifyRedirectTargets bool

	//===============
	// Throughput
	//===============
	// Number of concurrent validation workers
	concurrency int
	// Global cap on validations starting per second; <= 0 disables
	hitsPerSec int
	// Stop after this many results; MaxURLsUnlimited means no cap
	maxURLs int

	//===============
	// Scoring
	//===============
	// Free-text query scored against head metadata
	query string
	// Drop records whose normalized score is strictly below this
	scoreThreshold *float64
	// Only "bm25" is recognized; empty disables scoring
	scoringMethod string

	//===============
	// Diagnostics
	//===============
	verbose bool
}

// WithDefault returns the baseline configuration: match everything from both
// sources, no validation, no cap.
func WithDefault() SeedingConfig {
	return SeedingConfig{
		pattern:     "*",
		source:      SourceSitemap + "+" + SourceCommonCrawl,
		concurrency: 10,
		maxURLs:     MaxURLsUnlimited,
	}
}

func (c SeedingConfig) WithPattern(pattern string) SeedingConfig {
	c.pattern = pattern
	return c
}

func (c SeedingConfig) WithSource(source string) SeedingConfig {
	c.source = source
	return c
}

func (c SeedingConfig) WithForce(force bool) SeedingConfig {
	c.force = force
	return c
}

func (c SeedingConfig) WithLiveCheck(liveCheck bool) SeedingConfig {
	c.liveCheck = liveCheck
	return c
}

func (c SeedingConfig) WithExtractHead(extractHead bool) SeedingConfig {
	c.extractHead = extractHead
	return c
}

func (c SeedingConfig) WithVerifyRedirectTargets(verify bool) SeedingConfig {
	c.verifyRedirectTargets = verify
	return c
}

func (c SeedingConfig) WithConcurrency(concurrency int) SeedingConfig {
	c.concurrency = concurrency
	return c
}

func (c SeedingConfig) WithHitsPerSec(hitsPerSec int) SeedingConfig {
	c.hitsPerSec = hitsPerSec
	return c
}

func (c SeedingConfig) WithMaxURLs(maxURLs int) SeedingConfig {
	c.maxURLs = maxURLs
	return c
}

func (c SeedingConfig) WithQuery(query string) SeedingConfig {
	c.query = query
	return c
}

func (c SeedingConfig) WithScoreThreshold(threshold float64) SeedingConfig {
	c.scoreThreshold = &threshold
	return c
}

func (c SeedingConfig) WithScoringMethod(method string) SeedingConfig {
	c.scoringMethod = method
	return c
}

func (c SeedingConfig) WithVerbose(verbose bool) SeedingConfig {
	c.verbose = verbose
	return c
}

func (c SeedingConfig) Pattern() string {
	if c.pattern == "" {
		return "*"
	}
	return c.pattern
}

func (c SeedingConfig) Source() string               { return c.source }
func (c SeedingConfig) Force() bool                  { return c.force }
func (c SeedingConfig) LiveCheck() bool              { return c.liveCheck }
func (c SeedingConfig) ExtractHead() bool            { return c.extractHead }
func (c SeedingConfig) VerifyRedirectTargets() bool  { return c.verifyRedirectTargets }
func (c SeedingConfig) Concurrency() int             { return c.concurrency }
func (c SeedingConfig) HitsPerSec() int              { return c.hitsPerSec }
func (c SeedingConfig) MaxURLs() int                 { return c.maxURLs }
func (c SeedingConfig) Query() string                { return c.query }
func (c SeedingConfig) ScoreThreshold() *float64     { return c.scoreThreshold }
func (c SeedingConfig) ScoringMethod() string        { return c.scoringMethod }
func (c SeedingConfig) Verbose() bool                { return c.verbose }

// Sources splits the combined source expression into its tags.
func (c SeedingConfig) Sources() []string {
	parts := strings.Split(c.Source(), "+")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// HasSource reports whether the given tag is part of the source expression.
func (c SeedingConfig) HasSource(tag string) bool {
	for _, s := range c.Sources() {
		if s == tag {
			return true
		}
	}
	return false
}

// Validate enforces the invariants callers rely on before a pipeline is
// constructed. Any violation is a caller bug and aborts the call.
func (c SeedingConfig) Validate() error {
	for _, s := range c.Sources() {
		if s != SourceCommonCrawl && s != SourceSitemap {
			return &ConfigError{
				Message: fmt.Sprintf("invalid source %q, valid sources are: %s, %s", s, SourceCommonCrawl, SourceSitemap),
				Cause:   ErrCauseInvalidSource,
			}
		}
	}
	if c.concurrency <= 0 {
		return &ConfigError{
			Message: fmt.Sprintf("concurrency must be positive, got %d", c.concurrency),
			Cause:   ErrCauseInvalidConcurrency,
		}
	}
	if c.maxURLs < MaxURLsUnlimited {
		return &ConfigError{
			Message: fmt.Sprintf("max_urls must be -1 (unlimited) or non-negative, got %d", c.maxURLs),
			Cause:   ErrCauseInvalidMaxURLs,
		}
	}
	if c.scoreThreshold != nil && (*c.scoreThreshold < 0 || *c.scoreThreshold > 1) {
		return &ConfigError{
			Message: fmt.Sprintf("score_threshold must be within [0,1], got %v", *c.scoreThreshold),
			Cause:   ErrCauseInvalidThreshold,
		}
	}
	if c.scoringMethod != "" && c.scoringMethod != ScoringMethodBM25 {
		return &ConfigError{
			Message: fmt.Sprintf("unknown scoring_method %q", c.scoringMethod),
			Cause:   ErrCauseInvalidScoringMethod,
		}
	}
	return nil
}
