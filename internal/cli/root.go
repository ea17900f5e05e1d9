package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/url-seeder/internal/build"
	"github.com/rohmanhakim/url-seeder/internal/config"
	"github.com/rohmanhakim/url-seeder/internal/seeder"
)

var (
	domains               []string
	patternFlag           string
	source                string
	liveCheck             bool
	extractHead           bool
	verifyRedirectTargets bool
	concurrency           int
	hitsPerSec            int
	force                 bool
	maxURLs               int
	query                 string
	scoreThreshold        float64
	scoringMethod         string
	verbose               bool
	baseDirectory         string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "url-seeder",
	Version: build.FullVersion(),
	Short:   "Discover candidate URLs for a domain from Common Crawl and sitemaps.",
	Long: `url-seeder discovers candidate URLs for one or more domains from
authoritative sources (the Common Crawl index and sitemaps), optionally
verifies their liveness, optionally parses each document head, and
optionally ranks results against a free-text query with BM25.

Results are printed as one JSON record per line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(domains) == 0 {
			return fmt.Errorf("--domain is required; provide at least one domain to seed")
		}

		cfg := buildConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}

		var opts []seeder.Option
		if baseDirectory != "" {
			opts = append(opts, seeder.WithBaseDirectory(baseDirectory))
		}
		if verbose {
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			opts = append(opts, seeder.WithLogger(logger))
		}

		instance, err := seeder.New(opts...)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if len(domains) == 1 {
			records, err := instance.URLs(ctx, domains[0], cfg)
			if err != nil {
				return err
			}
			return printRecords(cmd, records)
		}

		resultsByDomain, err := instance.ManyURLs(ctx, domains, cfg)
		for _, domain := range domains {
			if printErr := printRecords(cmd, resultsByDomain[domain]); printErr != nil {
				return printErr
			}
		}
		return err
	},
}

func printRecords(cmd *cobra.Command, records []seeder.URLRecord) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	return nil
}

func buildConfig() config.SeedingConfig {
	cfg := config.WithDefault().
		WithPattern(patternFlag).
		WithSource(source).
		WithLiveCheck(liveCheck).
		WithExtractHead(extractHead).
		WithVerifyRedirectTargets(verifyRedirectTargets).
		WithConcurrency(concurrency).
		WithHitsPerSec(hitsPerSec).
		WithForce(force).
		WithMaxURLs(maxURLs).
		WithQuery(query).
		WithScoringMethod(scoringMethod).
		WithVerbose(verbose)
	if scoreThreshold >= 0 {
		cfg = cfg.WithScoreThreshold(scoreThreshold)
	}
	return cfg
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringArrayVar(&domains, "domain", []string{}, "domain to seed (can be repeated)")
	rootCmd.PersistentFlags().StringVar(&patternFlag, "pattern", "*", "shell-style glob applied to discovered URLs")
	rootCmd.PersistentFlags().StringVar(&source, "source", "sitemap+cc", `discovery sources, "cc" and/or "sitemap" joined with '+'`)
	rootCmd.PersistentFlags().BoolVar(&liveCheck, "live-check", false, "probe each URL with a HEAD request")
	rootCmd.PersistentFlags().BoolVar(&extractHead, "extract-head", false, "download a bounded prefix of each URL and parse its head")
	rootCmd.PersistentFlags().BoolVar(&verifyRedirectTargets, "verify-redirect-targets", false, "require redirect targets to answer 2xx during liveness checks")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 10, "number of concurrent validation workers")
	rootCmd.PersistentFlags().IntVar(&hitsPerSec, "hits-per-sec", 0, "global cap on validations starting per second (0 for unlimited)")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "bypass every cache layer and refetch")
	rootCmd.PersistentFlags().IntVar(&maxURLs, "max-urls", -1, "stop after this many results (-1 for unlimited)")
	rootCmd.PersistentFlags().StringVar(&query, "query", "", "free-text query scored against head metadata")
	rootCmd.PersistentFlags().Float64Var(&scoreThreshold, "score-threshold", -1, "drop records scoring below this (requires --query)")
	rootCmd.PersistentFlags().StringVar(&scoringMethod, "scoring-method", "bm25", `scoring method; only "bm25" is recognized`)
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log debug detail to stderr")
	rootCmd.PersistentFlags().StringVar(&baseDirectory, "base-directory", "", "cache base directory (defaults to $CRAWL4_AI_BASE_DIRECTORY or the home directory)")
}
