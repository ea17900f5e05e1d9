package sources

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rohmanhakim/url-seeder/internal/cache"
	"github.com/rohmanhakim/url-seeder/internal/config"
	"github.com/rohmanhakim/url-seeder/internal/fetcher"
	"github.com/rohmanhakim/url-seeder/internal/metadata"
	"github.com/rohmanhakim/url-seeder/internal/pattern"
	"github.com/rohmanhakim/url-seeder/pkg/failure"
	"github.com/rohmanhakim/url-seeder/pkg/retry"
	"github.com/rohmanhakim/url-seeder/pkg/timeutil"
	"github.com/rohmanhakim/url-seeder/pkg/urlutil"
)

/*
Common Crawl source

- Resolves the latest collection id through collinfo.json, cached on disk
- Streams the CDX index for a domain glob, one JSON object per line
- Appends every streamed URL to the source-list cache while emitting
  pattern matches
- Retries only HTTP 503 against the fixed {1s, 3s, 7s} schedule; any other
  failure terminates the enumeration

Upstream ordering is preserved; no client-side sort.
*/

const defaultIndexBaseURL = "https://index.commoncrawl.org"

// cdxScanBufferSize bounds a single CDX line.
const cdxScanBufferSize = 1024 * 1024

type CommonCrawl struct {
	metadataSink metadata.MetadataSink
	client       *fetcher.Client
	cache        *cache.DiskCache
	sleeper      timeutil.Sleeper
	baseURL      string

	mu      sync.Mutex
	indexID string
}

func NewCommonCrawl(
	metadataSink metadata.MetadataSink,
	client *fetcher.Client,
	diskCache *cache.DiskCache,
	sleeper timeutil.Sleeper,
) *CommonCrawl {
	return &CommonCrawl{
		metadataSink: metadataSink,
		client:       client,
		cache:        diskCache,
		sleeper:      sleeper,
		baseURL:      defaultIndexBaseURL,
	}
}

func (c *CommonCrawl) Name() string {
	return config.SourceCommonCrawl
}

// SetBaseURLForTest points the source at a fake index endpoint.
// This is a test helper method.
func (c *CommonCrawl) SetBaseURLForTest(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// EnsureIndex resolves the latest collection id: the on-disk cache when
// fresh, the collinfo endpoint otherwise. The id is memoized for the
// lifetime of the seeder instance.
func (c *CommonCrawl) EnsureIndex(ctx context.Context) (string, failure.ClassifiedError) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexID != "" {
		return c.indexID, nil
	}
	if id, ok := c.cache.IndexID(); ok {
		c.indexID = id
		return id, nil
	}

	result, err := c.client.Get(ctx, c.baseURL+"/collinfo.json", fetcher.CollinfoTimeout)
	if err != nil {
		return "", err
	}

	var collections []struct {
		ID string `json:"id"`
	}
	if jsonErr := json.Unmarshal(result.Body(), &collections); jsonErr != nil || len(collections) == 0 || collections[0].ID == "" {
		return "", &SourceError{
			Message:   fmt.Sprintf("cannot read collection info: %v", jsonErr),
			Retryable: false,
			Cause:     ErrCauseIndexUnavailable,
		}
	}

	c.indexID = collections[0].ID
	c.cache.SetIndexID(c.indexID)
	return c.indexID, nil
}

func (c *CommonCrawl) Discover(
	ctx context.Context,
	domain string,
	matcher pattern.Matcher,
	force bool,
	emit EmitFunc,
) failure.ClassifiedError {
	indexID, err := c.EnsureIndex(ctx)
	if err != nil {
		return err
	}

	raw := normalizeForIndex(domain)
	listPath := c.cache.SourceListPath(indexID, raw, matcher.Raw())

	if !force {
		if f, ok := c.cache.OpenSourceList(listPath); ok {
			defer f.Close()
			emitCachedList(f, matcher, emit)
			return nil
		}
	}

	cdxURL := c.cdxQueryURL(indexID, raw)

	// Only the initial 503 handshake is retried; once lines flow, a broken
	// stream terminates the enumeration.
	schedule := retry.NewScheduleParam(time.Second, 3*time.Second, 7*time.Second)
	opened := retry.Retry(ctx, schedule, c.sleeper, func() (io.ReadCloser, failure.ClassifiedError) {
		body, streamErr := c.client.Stream(ctx, cdxURL, fetcher.DefaultTimeout)
		if streamErr != nil {
			return nil, classifyForCdxRetry(streamErr)
		}
		return body, nil
	})
	if opened.Err() != nil {
		classified := asClassified(opened.Err())
		c.record("CommonCrawl.Discover", domain, classified)
		return classified
	}
	body := opened.Value()
	defer body.Close()

	writer := c.cache.NewListWriter(listPath)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), cdxScanBufferSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec struct {
			URL string `json:"url"`
		}
		if jsonErr := json.Unmarshal([]byte(line), &rec); jsonErr != nil || rec.URL == "" {
			// a malformed line is local damage; siblings continue
			c.record("CommonCrawl.Discover", domain, &SourceError{
				Message:   fmt.Sprintf("skipping malformed cdx line: %v", jsonErr),
				Retryable: true,
				Cause:     ErrCauseStreamCorrupt,
			})
			continue
		}
		writer.Append(rec.URL)
		if matcher.Matches(rec.URL) {
			if !emit(rec.URL) {
				// stopped early: the list is incomplete, keep the old cache
				writer.Abort()
				return nil
			}
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		writer.Abort()
		classified := &SourceError{
			Message:   fmt.Sprintf("cdx stream broke: %v", scanErr),
			Retryable: false,
			Cause:     ErrCauseStreamCorrupt,
		}
		c.record("CommonCrawl.Discover", domain, classified)
		return classified
	}

	writer.Commit()
	return nil
}

// cdxQueryURL builds the index query. The glob keeps the path when the
// domain carries one, otherwise it matches everything one level under the
// host.
func (c *CommonCrawl) cdxQueryURL(indexID, raw string) string {
	var glob string
	if strings.Contains(raw, "/") {
		glob = "*." + raw + "*"
	} else {
		glob = "*." + raw + "/*"
	}
	escaped := strings.ReplaceAll(url.QueryEscape(glob), "%2A", "*")
	return fmt.Sprintf("%s/%s-index?url=%s&output=json", c.baseURL, indexID, escaped)
}

// classifyForCdxRetry keeps 503 retryable and pins everything else down,
// so the schedule never spins on errors the endpoint will not heal.
func classifyForCdxRetry(err failure.ClassifiedError) failure.ClassifiedError {
	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) &&
		fetchErr.Cause == fetcher.ErrCauseHTTPStatus &&
		fetchErr.StatusCode == http.StatusServiceUnavailable {
		return err
	}
	return &SourceError{
		Message:   err.Error(),
		Retryable: false,
		Cause:     ErrCauseCdxUnavailable,
	}
}

func asClassified(err error) failure.ClassifiedError {
	if classified, ok := err.(failure.ClassifiedError); ok {
		return classified
	}
	return &SourceError{Message: err.Error(), Retryable: false, Cause: ErrCauseCdxUnavailable}
}

// normalizeForIndex strips scheme, query, fragment and leading dots.
func normalizeForIndex(domain string) string {
	return urlutil.NormalizeDomain(domain)
}

func emitCachedList(f io.Reader, matcher pattern.Matcher, emit EmitFunc) {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), cdxScanBufferSize)
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

func (c *CommonCrawl) record(method string, domain string, err failure.ClassifiedError) {
	if c.metadataSink == nil {
		return
	}
	cause := metadata.CauseNetworkFailure
	var sourceErr *SourceError
	if errors.As(err, &sourceErr) {
		cause = mapSourceErrorToMetadataCause(sourceErr)
	}
	c.metadataSink.RecordError(
		time.Now(),
		"sources",
		method,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrDomain, domain),
			metadata.NewAttr(metadata.AttrSource, c.Name()),
		},
	)
}
