package cache

import "time"

// Persistence layout

const (
	// DefaultTTL governs every cache kind: source lists, per-URL entries,
	// and the index id file.
	DefaultTTL = 7 * 24 * time.Hour

	// KindLive holds liveness-probe records, KindHead holds head-extraction
	// records. The kinds are separate subtrees so a liveness-only run never
	// shadows richer head data.
	KindLive = "live"
	KindHead = "head"

	// cacheSubdir sits under the resolved base directory.
	cacheSubdir = ".crawl4ai"
	// seederSubdir separates seeder files from the rest of the toolkit.
	seederSubdir = "seeder_cache"

	// indexFileName stores the one-line Common-Crawl collection id.
	indexFileName = "latest_cc_index.txt"

	// patternHashLen is how many hex chars of the pattern digest make it
	// into a source-list filename.
	patternHashLen = 8
)
