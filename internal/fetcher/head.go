package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	"golang.org/x/text/encoding/charmap"

	"github.com/rohmanhakim/url-seeder/internal/metadata"
	"github.com/rohmanhakim/url-seeder/pkg/urlutil"
)

var (
	headCloseTag = []byte("</head>")
	gzipMagic    = []byte{0x1f, 0x8b}
)

// FetchHeadPrefix streams the beginning of a document, stopping as soon as
// the buffer contains </head> or the byte cap is hit. Redirects are handled
// manually up to maxRedirects hops. Compression is requested off
// (Accept-Encoding: identity); a declared gzip encoding is honored only
// when the payload starts with the gzip magic bytes, while a declared br
// encoding is decoded without any signature check.
func (c *Client) FetchHeadPrefix(ctx context.Context, rawURL string) (HeadPrefix, bool) {
	currentURL := rawURL

	for hop := 0; hop <= maxRedirects; hop++ {
		prefix, next, ok := c.fetchHeadOnce(ctx, currentURL)
		if next != "" {
			currentURL = next
			continue
		}
		return prefix, ok
	}

	c.recordError("Client.FetchHeadPrefix", rawURL, &FetchError{
		Message:   fmt.Sprintf("exceeded %d redirects", maxRedirects),
		Retryable: false,
		Cause:     ErrCauseRedirectLimitExceeded,
	})
	return HeadPrefix{FinalURL: currentURL}, false
}

// fetchHeadOnce performs a single hop. A non-empty next return means the
// caller should follow that redirect target.
func (c *Client) fetchHeadOnce(ctx context.Context, rawURL string) (prefix HeadPrefix, next string, ok bool) {
	hopCtx, cancel := context.WithTimeout(ctx, HeadExtractTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(hopCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return HeadPrefix{FinalURL: rawURL}, "", false
	}
	c.applyHeaders(req)
	req.Header.Set("Accept-Encoding", "identity")

	start := time.Now()
	resp, err := c.noFollow.Do(req)
	if err != nil {
		c.recordError("Client.FetchHeadPrefix", rawURL, classifyTransportError(err))
		return HeadPrefix{FinalURL: rawURL}, "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		location := resp.Header.Get("Location")
		if location == "" {
			return HeadPrefix{FinalURL: rawURL}, "", false
		}
		return HeadPrefix{}, urlutil.JoinReference(rawURL, location), false
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.recordError("Client.FetchHeadPrefix", rawURL, statusError(resp.StatusCode))
		return HeadPrefix{FinalURL: rawURL}, "", false
	}

	buf := readUntilHeadClose(resp.Body)
	c.recordFetch(rawURL, resp.StatusCode, time.Since(start), resp.Header.Get("Content-Type"))

	buf = maybeDecompress(buf, resp.Header.Get("Content-Encoding"), c.metadataSink, rawURL)

	html := decodeHead(truncateAtHeadClose(buf))
	return HeadPrefix{HTML: html, FinalURL: rawURL}, "", true
}

// readUntilHeadClose accumulates chunks until </head> appears
// (case-insensitive) or the byte cap is reached.
func readUntilHeadClose(body io.Reader) []byte {
	buf := make([]byte, 0, headChunkSize)
	chunk := make([]byte, headChunkSize)
	for {
		n, err := body.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if bytes.Contains(bytes.ToLower(buf), headCloseTag) || len(buf) >= maxHeadBytes {
				return buf
			}
		}
		if err != nil {
			return buf
		}
	}
}

// maybeDecompress honors a declared Content-Encoding. Gzip is gated on its
// magic bytes because servers routinely declare gzip over a plain payload;
// a mismatching declaration is recorded and falls through with the raw
// bytes. Brotli carries no signature, so a br declaration is trusted and a
// failed decode keeps the raw buffer.
func maybeDecompress(buf []byte, declared string, sink metadata.MetadataSink, url string) []byte {
	enc := strings.ToLower(declared)
	switch {
	case enc == "gzip" && bytes.HasPrefix(buf, gzipMagic):
		zr, err := gzip.NewReader(bytes.NewReader(buf))
		if err != nil {
			return buf
		}
		// a truncated stream still yields the bytes read so far
		decoded, _ := io.ReadAll(zr)
		zr.Close()
		if len(decoded) > 0 {
			return decoded
		}
		return buf
	case enc == "br":
		// a truncated brotli stream may still yield a usable prefix
		decoded, _ := io.ReadAll(brotli.NewReader(bytes.NewReader(buf)))
		if len(decoded) > 0 {
			return decoded
		}
		return buf
	case enc == "gzip":
		if sink != nil {
			sink.RecordError(
				time.Now(),
				"fetcher",
				"Client.FetchHeadPrefix",
				metadata.CauseContentInvalid,
				"declared gzip encoding does not match payload",
				[]metadata.Attribute{metadata.NewAttr(metadata.AttrURL, url)},
			)
		}
	}
	return buf
}

// truncateAtHeadClose cuts right after </head>, or keeps the first
// headFallbackBytes when the tag never appeared.
func truncateAtHeadClose(buf []byte) []byte {
	idx := bytes.Index(bytes.ToLower(buf), headCloseTag)
	if idx == -1 {
		if len(buf) > headFallbackBytes {
			return buf[:headFallbackBytes]
		}
		return buf
	}
	return buf[:idx+len(headCloseTag)]
}

// decodeHead decodes as UTF-8, falling back to Latin-1 for byte sequences
// that are not valid UTF-8. Should the Latin-1 decode fail too, invalid
// sequences are replaced with U+FFFD so the parser always gets valid UTF-8.
func decodeHead(buf []byte) string {
	if utf8.Valid(buf) {
		return string(buf)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(buf)
	if err != nil {
		return strings.ToValidUTF8(string(buf), string(utf8.RuneError))
	}
	return string(decoded)
}
