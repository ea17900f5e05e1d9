package fetcher

import (
	"context"
	"net/http"

	"github.com/rohmanhakim/url-seeder/pkg/urlutil"
)

// ResolveHead HEAD-probes a URL without following redirects.
//
// Returns:
//   - the same URL if it answers 2xx,
//   - the absolute redirect target if it answers 3xx with a Location
//     header (recursively verified down to a 2xx when verifyTargets is
//     set, bounded by a small depth),
//   - ok=false on any other status or network error.
func (c *Client) ResolveHead(ctx context.Context, rawURL string, verifyTargets bool) (string, bool) {
	return c.resolveHead(ctx, rawURL, verifyTargets, verifyRedirectDepth)
}

func (c *Client) resolveHead(ctx context.Context, rawURL string, verifyTargets bool, depth int) (string, bool) {
	result, err := c.Head(ctx, rawURL, HeadProbeTimeout)
	if err != nil {
		return "", false
	}

	if result.StatusCode >= 200 && result.StatusCode < 300 {
		return rawURL, true
	}

	switch result.StatusCode {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		if result.Location == "" {
			return "", false
		}
		target := urlutil.JoinReference(rawURL, result.Location)
		if !verifyTargets {
			return target, true
		}
		if depth <= 0 {
			return "", false
		}
		return c.resolveHead(ctx, target, verifyTargets, depth-1)
	}

	return "", false
}
