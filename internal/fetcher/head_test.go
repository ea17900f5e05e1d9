package fetcher_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"

	"github.com/rohmanhakim/url-seeder/internal/fetcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *fetcher.Client {
	return fetcher.NewClientWith(nil, &http.Client{})
}

func TestFetchHeadPrefix_StopsAtHeadClose(t *testing.T) {
	page := `<html><head><title>Stop here</title></HEAD><body>` + strings.Repeat("x", 200_000) + `</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	client := newTestClient()
	prefix, ok := client.FetchHeadPrefix(context.Background(), srv.URL)

	require.True(t, ok)
	assert.True(t, strings.HasSuffix(strings.ToLower(prefix.HTML), "</head>"))
	assert.Contains(t, prefix.HTML, "<title>Stop here</title>")
	assert.Less(t, len(prefix.HTML), 70*1024)
}

func TestFetchHeadPrefix_CapsWithoutHeadClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// no </head> anywhere, far beyond the cap
		fmt.Fprint(w, "<html><head><title>endless</title>", strings.Repeat("y", 300_000))
	}))
	defer srv.Close()

	client := newTestClient()
	prefix, ok := client.FetchHeadPrefix(context.Background(), srv.URL)

	require.True(t, ok)
	// without a closing tag only the first 10 KiB are kept
	assert.LessOrEqual(t, len(prefix.HTML), 10*1024)
	assert.Contains(t, prefix.HTML, "<title>endless</title>")
}

func TestFetchHeadPrefix_FollowsRedirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>landed</title></head><body></body></html>`)
	}))
	defer target.Close()

	hops := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/final", http.StatusFound)
	}))
	defer hops.Close()

	client := newTestClient()
	prefix, ok := client.FetchHeadPrefix(context.Background(), hops.URL)

	require.True(t, ok)
	assert.Contains(t, prefix.HTML, "landed")
	assert.Equal(t, target.URL+"/final", prefix.FinalURL)
}

func TestFetchHeadPrefix_RedirectLoopGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/again", http.StatusMovedPermanently)
	}))
	defer srv.Close()

	client := newTestClient()
	_, ok := client.FetchHeadPrefix(context.Background(), srv.URL)
	assert.False(t, ok)
}

func TestFetchHeadPrefix_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient()
	prefix, ok := client.FetchHeadPrefix(context.Background(), srv.URL)

	assert.False(t, ok)
	assert.Equal(t, srv.URL, prefix.FinalURL)
}

func TestFetchHeadPrefix_GzipWithMagicIsDecoded(t *testing.T) {
	var body bytes.Buffer
	zw := gzip.NewWriter(&body)
	_, err := zw.Write([]byte(`<html><head><title>compressed</title></head><body></body></html>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(body.Bytes())
	}))
	defer srv.Close()

	client := newTestClient()
	prefix, ok := client.FetchHeadPrefix(context.Background(), srv.URL)

	require.True(t, ok)
	assert.Contains(t, prefix.HTML, "compressed")
}

func TestFetchHeadPrefix_BrotliIsDecoded(t *testing.T) {
	var body bytes.Buffer
	bw := brotli.NewWriter(&body)
	_, err := bw.Write([]byte(`<html><head><title>brotli page</title></head><body></body></html>`))
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		w.Write(body.Bytes())
	}))
	defer srv.Close()

	client := newTestClient()
	prefix, ok := client.FetchHeadPrefix(context.Background(), srv.URL)

	require.True(t, ok)
	assert.Contains(t, prefix.HTML, "brotli page")
}

func TestFetchHeadPrefix_BogusEncodingIsIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// header lies: payload is plain text
		w.Header().Set("Content-Encoding", "gzip")
		fmt.Fprint(w, `<html><head><title>plain after all</title></head>`)
	}))
	defer srv.Close()

	client := newTestClient()
	prefix, ok := client.FetchHeadPrefix(context.Background(), srv.URL)

	require.True(t, ok)
	assert.Contains(t, prefix.HTML, "plain after all")
}

func TestFetchHeadPrefix_Latin1Fallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 0xE9 is é in Latin-1 and invalid on its own in UTF-8
		w.Write([]byte("<html><head><title>caf\xe9</title></head>"))
	}))
	defer srv.Close()

	client := newTestClient()
	prefix, ok := client.FetchHeadPrefix(context.Background(), srv.URL)

	require.True(t, ok)
	assert.Contains(t, prefix.HTML, "café")
}

func TestResolveHead_DirectHit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient()
	resolved, ok := client.ResolveHead(context.Background(), srv.URL, false)

	require.True(t, ok)
	assert.Equal(t, srv.URL, resolved)
}

func TestResolveHead_RedirectWithoutVerification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://dead.invalid/")
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	client := newTestClient()
	resolved, ok := client.ResolveHead(context.Background(), srv.URL, false)

	require.True(t, ok)
	assert.Equal(t, "https://dead.invalid/", resolved)
}

func TestResolveHead_RedirectWithVerificationFailsOnDeadTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "http://127.0.0.1:1/") // nothing listens there
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	client := newTestClient()
	_, ok := client.ResolveHead(context.Background(), srv.URL, true)
	assert.False(t, ok)
}

func TestResolveHead_RedirectWithVerificationFollowsToLiveTarget(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusMovedPermanently)
	}))
	defer srv.Close()

	client := newTestClient()
	resolved, ok := client.ResolveHead(context.Background(), srv.URL, true)

	require.True(t, ok)
	assert.Equal(t, target.URL, resolved)
}

func TestResolveHead_ErrorStatusUnresolved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient()
	_, ok := client.ResolveHead(context.Background(), srv.URL, false)
	assert.False(t, ok)
}

func TestGet_ReadsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, "payload")
	}))
	defer srv.Close()

	client := newTestClient()
	result, err := client.Get(context.Background(), srv.URL, 0)

	require.NoError(t, err)
	assert.Equal(t, "payload", string(result.Body()))
	assert.Equal(t, http.StatusOK, result.Code())
}

func TestGet_StatusErrorClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient()
	_, err := client.Get(context.Background(), srv.URL, 0)

	require.Error(t, err)
	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, fetcher.ErrCauseHTTPStatus, fetchErr.Cause)
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
	assert.False(t, fetchErr.IsRetryable())
}

func TestStream_YieldsLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "line-1\nline-2\n")
	}))
	defer srv.Close()

	client := newTestClient()
	body, err := client.Stream(context.Background(), srv.URL, 0)
	require.NoError(t, err)
	defer body.Close()

	var buf bytes.Buffer
	_, copyErr := buf.ReadFrom(body)
	require.NoError(t, copyErr)
	assert.Equal(t, "line-1\nline-2\n", buf.String())
}

func TestStream_RetryableOn503(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newTestClient()
	_, err := client.Stream(context.Background(), srv.URL, 0)

	require.Error(t, err)
	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.True(t, fetchErr.IsRetryable())
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
}
