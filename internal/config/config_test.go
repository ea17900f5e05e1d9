package config_test

import (
	"testing"

	"github.com/rohmanhakim/url-seeder/internal/config"
	"github.com/rohmanhakim/url-seeder/pkg/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefault(t *testing.T) {
	cfg := config.WithDefault()

	assert.Equal(t, "*", cfg.Pattern())
	assert.Equal(t, "sitemap+cc", cfg.Source())
	assert.Equal(t, 10, cfg.Concurrency())
	assert.Equal(t, config.MaxURLsUnlimited, cfg.MaxURLs())
	assert.False(t, cfg.LiveCheck())
	assert.False(t, cfg.ExtractHead())
	assert.NoError(t, cfg.Validate())
}

func TestBuilderChain(t *testing.T) {
	cfg := config.WithDefault().
		WithPattern("*/blog/*").
		WithSource("cc").
		WithLiveCheck(true).
		WithExtractHead(true).
		WithConcurrency(5).
		WithHitsPerSec(20).
		WithMaxURLs(100).
		WithQuery("cheap flights").
		WithScoreThreshold(0.3).
		WithScoringMethod(config.ScoringMethodBM25).
		WithForce(true).
		WithVerifyRedirectTargets(true).
		WithVerbose(true)

	assert.Equal(t, "*/blog/*", cfg.Pattern())
	assert.Equal(t, "cc", cfg.Source())
	assert.True(t, cfg.LiveCheck())
	assert.True(t, cfg.ExtractHead())
	assert.Equal(t, 5, cfg.Concurrency())
	assert.Equal(t, 20, cfg.HitsPerSec())
	assert.Equal(t, 100, cfg.MaxURLs())
	assert.Equal(t, "cheap flights", cfg.Query())
	require.NotNil(t, cfg.ScoreThreshold())
	assert.InDelta(t, 0.3, *cfg.ScoreThreshold(), 1e-9)
	assert.Equal(t, config.ScoringMethodBM25, cfg.ScoringMethod())
	assert.True(t, cfg.Force())
	assert.True(t, cfg.VerifyRedirectTargets())
	assert.True(t, cfg.Verbose())
}

func TestBuilderDoesNotMutateReceiver(t *testing.T) {
	base := config.WithDefault()
	_ = base.WithConcurrency(99).WithPattern("x")

	assert.Equal(t, 10, base.Concurrency())
	assert.Equal(t, "*", base.Pattern())
}

func TestSources(t *testing.T) {
	tests := []struct {
		source   string
		expected []string
	}{
		{"cc", []string{"cc"}},
		{"sitemap", []string{"sitemap"}},
		{"sitemap+cc", []string{"sitemap", "cc"}},
		{"cc+sitemap", []string{"cc", "sitemap"}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			cfg := config.WithDefault().WithSource(tt.source)
			assert.Equal(t, tt.expected, cfg.Sources())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.SeedingConfig
		wantCause config.ConfigErrorCause
	}{
		{
			name:      "unknown source tag",
			cfg:       config.WithDefault().WithSource("cc+rss"),
			wantCause: config.ErrCauseInvalidSource,
		},
		{
			name:      "empty source tag",
			cfg:       config.WithDefault().WithSource("cc+"),
			wantCause: config.ErrCauseInvalidSource,
		},
		{
			name:      "zero concurrency",
			cfg:       config.WithDefault().WithConcurrency(0),
			wantCause: config.ErrCauseInvalidConcurrency,
		},
		{
			name:      "negative concurrency",
			cfg:       config.WithDefault().WithConcurrency(-3),
			wantCause: config.ErrCauseInvalidConcurrency,
		},
		{
			name:      "max_urls below -1",
			cfg:       config.WithDefault().WithMaxURLs(-2),
			wantCause: config.ErrCauseInvalidMaxURLs,
		},
		{
			name:      "threshold above one",
			cfg:       config.WithDefault().WithScoreThreshold(1.5),
			wantCause: config.ErrCauseInvalidThreshold,
		},
		{
			name:      "threshold below zero",
			cfg:       config.WithDefault().WithScoreThreshold(-0.1),
			wantCause: config.ErrCauseInvalidThreshold,
		},
		{
			name:      "unknown scoring method",
			cfg:       config.WithDefault().WithScoringMethod("tfidf"),
			wantCause: config.ErrCauseInvalidScoringMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)

			var cfgErr *config.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantCause, cfgErr.Cause)
			assert.Equal(t, failure.SeverityFatal, cfgErr.Severity())
		})
	}
}

func TestValidate_AcceptsBoundaryValues(t *testing.T) {
	assert.NoError(t, config.WithDefault().WithMaxURLs(config.MaxURLsUnlimited).Validate())
	assert.NoError(t, config.WithDefault().WithMaxURLs(0).Validate())
	assert.NoError(t, config.WithDefault().WithConcurrency(1).Validate())
	assert.NoError(t, config.WithDefault().WithScoreThreshold(0).Validate())
	assert.NoError(t, config.WithDefault().WithScoreThreshold(1).Validate())
	assert.NoError(t, config.WithDefault().WithScoringMethod("").Validate())
}

func TestResolveBaseDirectory_EnvOverride(t *testing.T) {
	t.Setenv("CRAWL4_AI_BASE_DIRECTORY", "/tmp/seeder-base")

	dir, err := config.ResolveBaseDirectory()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/seeder-base", dir)
}

func TestResolveBaseDirectory_FallsBackToHome(t *testing.T) {
	t.Setenv("CRAWL4_AI_BASE_DIRECTORY", "")

	dir, err := config.ResolveBaseDirectory()
	require.NoError(t, err)
	assert.NotEmpty(t, dir)
}
