package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/rohmanhakim/url-seeder/internal/metadata"
	"github.com/rohmanhakim/url-seeder/pkg/failure"
)

/*
Responsibilities

- Perform HTTP requests on behalf of every other component
- Apply headers and timeouts
- Handle redirects explicitly where callers need to see them
- Classify responses

Fetch Semantics

- One client serves a whole seeder instance and is safe for concurrent use
- Redirect-following and non-following variants share one transport
- No cookie jar
- All responses are recorded with metadata

The fetcher never parses content; it only returns bytes and metadata.
*/

type Client struct {
	metadataSink metadata.MetadataSink
	follow       *http.Client
	noFollow     *http.Client
	userAgent    string
}

// NewClient builds the shared HTTP client: HTTP/2 enabled where the server
// offers it, desktop User-Agent, no cookie jar. Per-request deadlines are
// applied through contexts, not a client-wide timeout, so streaming reads
// are not cut short by unrelated defaults.
func NewClient(metadataSink metadata.MetadataSink) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	// http2 negotiation over TLS; plain-text origins stay on HTTP/1.1
	_ = http2.ConfigureTransport(transport)

	follow := &http.Client{Transport: transport}
	return newClientFrom(metadataSink, follow)
}

// NewClientWith wraps an injected *http.Client, keeping its transport.
// Used by callers that bring their own client and by tests.
func NewClientWith(metadataSink metadata.MetadataSink, httpClient *http.Client) *Client {
	return newClientFrom(metadataSink, httpClient)
}

func newClientFrom(metadataSink metadata.MetadataSink, follow *http.Client) *Client {
	noFollow := *follow
	noFollow.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Client{
		metadataSink: metadataSink,
		follow:       follow,
		noFollow:     &noFollow,
		userAgent:    defaultUserAgent,
	}
}

func (c *Client) UserAgent() string {
	return c.userAgent
}

// Get fetches a URL following redirects and reads the whole body.
func (c *Client) Get(ctx context.Context, rawURL string, timeout time.Duration) (FetchResult, failure.ClassifiedError) {
	start := time.Now()
	result, err := c.get(ctx, rawURL, timeout)
	c.recordFetch(rawURL, result.statusCode, time.Since(start), result.headers["Content-Type"])
	if err != nil {
		c.recordError("Client.Get", rawURL, err)
		return FetchResult{}, err
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, rawURL string, timeout time.Duration) (FetchResult, failure.ClassifiedError) {
	ctx, cancel := c.withTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	c.applyHeaders(req)

	resp, err := c.follow.Do(req)
	if err != nil {
		return FetchResult{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return FetchResult{statusCode: resp.StatusCode}, statusError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{statusCode: resp.StatusCode}, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadResponseBodyError,
		}
	}

	return FetchResult{
		url:        resp.Request.URL.String(),
		body:       body,
		statusCode: resp.StatusCode,
		headers:    flattenHeaders(resp.Header),
	}, nil
}

// Head issues a HEAD request without following redirects, so the caller
// can inspect 3xx outcomes and the Location header.
func (c *Client) Head(ctx context.Context, rawURL string, timeout time.Duration) (HeadResult, failure.ClassifiedError) {
	ctx, cancel := c.withTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return HeadResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	c.applyHeaders(req)

	resp, err := c.noFollow.Do(req)
	if err != nil {
		classified := classifyTransportError(err)
		c.recordError("Client.Head", rawURL, classified)
		return HeadResult{}, classified
	}
	resp.Body.Close()

	return HeadResult{
		StatusCode: resp.StatusCode,
		Location:   resp.Header.Get("Location"),
	}, nil
}

// Stream opens a redirect-following GET and hands the body back to the
// caller. On a non-2xx status the body is closed and a classified error
// returned. The caller owns closing the reader on success.
func (c *Client) Stream(ctx context.Context, rawURL string, timeout time.Duration) (io.ReadCloser, failure.ClassifiedError) {
	ctx, cancel := c.withTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	c.applyHeaders(req)

	resp, err := c.follow.Do(req)
	if err != nil {
		cancel()
		classified := classifyTransportError(err)
		c.recordError("Client.Stream", rawURL, classified)
		return nil, classified
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		cancel()
		statusErr := statusError(resp.StatusCode)
		c.recordError("Client.Stream", rawURL, statusErr)
		return nil, statusErr
	}

	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

// cancelOnClose ties the stream's context lifetime to the body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func (c *Client) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
}

func (c *Client) recordFetch(url string, status int, duration time.Duration, contentType string) {
	if c.metadataSink == nil {
		return
	}
	c.metadataSink.RecordFetch(url, status, duration, contentType, 0)
}

func (c *Client) recordError(method string, url string, err failure.ClassifiedError) {
	if c.metadataSink == nil {
		return
	}
	var fetchErr *FetchError
	cause := metadata.CauseUnknown
	if errors.As(err, &fetchErr) {
		cause = mapFetchErrorToMetadataCause(fetchErr)
	}
	c.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		method,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, url),
		},
	)
}

func classifyTransportError(err error) failure.ClassifiedError {
	cause := ErrCauseNetworkFailure
	if errors.Is(err, context.DeadlineExceeded) {
		cause = ErrCauseTimeout
	}
	return &FetchError{
		Message:   fmt.Sprintf("request failed: %v", err),
		Retryable: true,
		Cause:     cause,
	}
}

func statusError(code int) *FetchError {
	return &FetchError{
		Message:    fmt.Sprintf("unexpected status: %d", code),
		Retryable:  code == http.StatusServiceUnavailable || code >= 500,
		Cause:      ErrCauseHTTPStatus,
		StatusCode: code,
	}
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}
