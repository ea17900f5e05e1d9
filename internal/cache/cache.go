package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohmanhakim/url-seeder/internal/metadata"
	"github.com/rohmanhakim/url-seeder/pkg/fileutil"
	"github.com/rohmanhakim/url-seeder/pkg/hashutil"
	"github.com/rohmanhakim/url-seeder/pkg/urlutil"
)

/*
Responsibilities
- Persist per-source URL lists and per-URL validation records
- Enforce the shared TTL through file mtimes
- Keep every write atomic (temp file + rename)
- Swallow every filesystem error after recording it: the cache is
  advisory and must never fail a seeding call

Layout under <base>/.crawl4ai/seeder_cache/:
- latest_cc_index.txt
- {index_id|"sitemap"}_{domain_safe}_{pattern_hash8}.jsonl
- live/<sha1(url)>.json
- head/<sha1(url)>.json
*/

type DiskCache struct {
	metadataSink metadata.MetadataSink
	root         string
	ttl          time.Duration
}

// New prepares the cache tree under baseDir. Directory creation failures
// are recorded and leave a cache that misses on every read.
func New(metadataSink metadata.MetadataSink, baseDir string, ttl time.Duration) *DiskCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &DiskCache{
		metadataSink: metadataSink,
		root:         filepath.Join(baseDir, cacheSubdir, seederSubdir),
		ttl:          ttl,
	}
	for _, sub := range []string{"", KindLive, KindHead} {
		if err := fileutil.EnsureDir(c.root, sub); err != nil {
			c.record("New", &CacheError{Message: err.Error(), Cause: ErrCauseWriteFailure, Path: filepath.Join(c.root, sub)})
		}
	}
	return c
}

func (c *DiskCache) Root() string {
	return c.root
}

func (c *DiskCache) TTL() time.Duration {
	return c.ttl
}

// fresh reports whether path exists and its mtime is within the TTL.
func (c *DiskCache) fresh(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) <= c.ttl
}

// ───────── source lists ─────────

// SourceListPath builds the canonical path of a per-source URL list. The
// domain is sanitized raw (scheme kept out by the caller's normalization,
// '/?#' runs replaced); the pattern contributes the first 8 hex chars of
// its MD5.
func (c *DiskCache) SourceListPath(sourceTag, domain, pattern string) string {
	digest, err := hashutil.ShortHash([]byte(pattern), hashutil.HashAlgoMD5, patternHashLen)
	if err != nil {
		digest = strings.Repeat("0", patternHashLen)
	}
	safe := urlutil.SafeFileComponent(domain)
	return filepath.Join(c.root, fmt.Sprintf("%s_%s_%s.jsonl", sourceTag, safe, digest))
}

// OpenSourceList returns a reader over a fresh cached list, or ok=false on
// a miss. The caller owns closing the file.
func (c *DiskCache) OpenSourceList(path string) (*os.File, bool) {
	if !c.fresh(path) {
		return nil, false
	}
	f, err := os.Open(path)
	if err != nil {
		c.record("OpenSourceList", &CacheError{Message: err.Error(), Cause: ErrCauseReadFailure, Path: path})
		return nil, false
	}
	return f, true
}

// NewListWriter starts an atomic rewrite of a source list. URLs stream
// into a sibling temp file; Commit renames it into place, Abort discards
// it. A writer that could not be created still accepts calls and drops
// them, so producers never branch on cache health.
func (c *DiskCache) NewListWriter(path string) *ListWriter {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		c.record("NewListWriter", &CacheError{Message: err.Error(), Cause: ErrCauseWriteFailure, Path: path})
		return &ListWriter{}
	}
	return &ListWriter{cache: c, path: path, tmp: tmp}
}

type ListWriter struct {
	cache *DiskCache
	path  string
	tmp   *os.File
}

// Append writes one URL line. Errors disable the writer for the rest of
// the stream.
func (w *ListWriter) Append(url string) {
	if w.tmp == nil {
		return
	}
	if _, err := w.tmp.WriteString(url + "\n"); err != nil {
		w.cache.record("ListWriter.Append", &CacheError{Message: err.Error(), Cause: ErrCauseWriteFailure, Path: w.path})
		w.discard()
	}
}

// Commit renames the temp file into its final place.
func (w *ListWriter) Commit() {
	if w.tmp == nil {
		return
	}
	name := w.tmp.Name()
	if err := w.tmp.Close(); err != nil {
		w.cache.record("ListWriter.Commit", &CacheError{Message: err.Error(), Cause: ErrCauseWriteFailure, Path: w.path})
		os.Remove(name)
		w.tmp = nil
		return
	}
	if err := os.Rename(name, w.path); err != nil {
		w.cache.record("ListWriter.Commit", &CacheError{Message: err.Error(), Cause: ErrCauseWriteFailure, Path: w.path})
		os.Remove(name)
	}
	w.tmp = nil
}

// Abort drops the partial list, leaving any previous file untouched.
func (w *ListWriter) Abort() {
	w.discard()
}

func (w *ListWriter) discard() {
	if w.tmp == nil {
		return
	}
	name := w.tmp.Name()
	w.tmp.Close()
	os.Remove(name)
	w.tmp = nil
}

// ───────── per-URL entries ─────────

func (c *DiskCache) entryPath(kind, url string) string {
	h, err := hashutil.HashBytes([]byte(url), hashutil.HashAlgoSHA1)
	if err != nil {
		h = "invalid"
	}
	return filepath.Join(c.root, kind, h+".json")
}

// GetEntry returns the raw JSON of a fresh per-URL record, or ok=false on
// a miss. Payload decoding belongs to the caller.
func (c *DiskCache) GetEntry(kind, url string) ([]byte, bool) {
	path := c.entryPath(kind, url)
	if !c.fresh(path) {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		c.record("GetEntry", &CacheError{Message: err.Error(), Cause: ErrCauseReadFailure, Path: path})
		return nil, false
	}
	return data, true
}

// SetEntry persists the raw JSON of a per-URL record. Failures are
// recorded and dropped.
func (c *DiskCache) SetEntry(kind, url string, data []byte) {
	path := c.entryPath(kind, url)
	if err := fileutil.WriteFileAtomic(path, data); err != nil {
		c.record("SetEntry", &CacheError{Message: err.Error(), Cause: ErrCauseWriteFailure, Path: path})
	}
}

// ───────── index id ─────────

// IndexID returns the cached Common-Crawl collection id when fresh.
func (c *DiskCache) IndexID() (string, bool) {
	path := filepath.Join(c.root, indexFileName)
	if !c.fresh(path) {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		c.record("IndexID", &CacheError{Message: err.Error(), Cause: ErrCauseReadFailure, Path: path})
		return "", false
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", false
	}
	return id, true
}

// SetIndexID persists the collection id.
func (c *DiskCache) SetIndexID(id string) {
	path := filepath.Join(c.root, indexFileName)
	if err := fileutil.WriteFileAtomic(path, []byte(id)); err != nil {
		c.record("SetIndexID", &CacheError{Message: err.Error(), Cause: ErrCauseWriteFailure, Path: path})
	}
}

func (c *DiskCache) record(method string, err *CacheError) {
	if c.metadataSink == nil {
		return
	}
	c.metadataSink.RecordError(
		time.Now(),
		"cache",
		method,
		mapCacheErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrPath, err.Path),
		},
	)
}
