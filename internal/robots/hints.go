package robots

import (
	"context"
	"fmt"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/rohmanhakim/url-seeder/internal/fetcher"
	"github.com/rohmanhakim/url-seeder/internal/metadata"
	"github.com/rohmanhakim/url-seeder/pkg/urlutil"
)

/*
HintFetcher

Responsibilities:
- Fetch robots.txt per domain using the shared HTTP client
- Parse the file into structured form
- Surface only the Sitemap directives

robots.txt is consulted purely as a source of sitemap hints; directive
enforcement for fetched URLs is out of scope. A missing or malformed
robots.txt yields no hints, never an error.
*/

type HintFetcher struct {
	metadataSink metadata.MetadataSink
	client       *fetcher.Client
	schemes      []string
}

func NewHintFetcher(metadataSink metadata.MetadataSink, client *fetcher.Client) HintFetcher {
	return HintFetcher{
		metadataSink: metadataSink,
		client:       client,
		schemes:      []string{"https"},
	}
}

// SitemapHints returns every sitemap URL robots.txt advertises for the
// domain, in file order.
func (h *HintFetcher) SitemapHints(ctx context.Context, domain string) []string {
	host := urlutil.HostForProbe(domain)

	for _, scheme := range h.schemes {
		robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)

		result, err := h.client.Get(ctx, robotsURL, fetcher.RobotsTimeout)
		if err != nil {
			h.record(domain, fmt.Sprintf("robots.txt unavailable at %s: %v", robotsURL, err))
			continue
		}

		data, parseErr := robotstxt.FromBytes(result.Body())
		if parseErr != nil {
			h.record(domain, fmt.Sprintf("robots.txt unparseable: %v", parseErr))
			return nil
		}
		return data.Sitemaps
	}
	return nil
}

// SetSchemesForTest overrides the probe schemes.
// This is a test helper method.
func (h *HintFetcher) SetSchemesForTest(schemes ...string) {
	h.schemes = schemes
}

func (h *HintFetcher) record(domain string, message string) {
	if h.metadataSink == nil {
		return
	}
	h.metadataSink.RecordError(
		time.Now(),
		"robots",
		"HintFetcher.SitemapHints",
		metadata.CauseNetworkFailure,
		message,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrDomain, domain),
		},
	)
}
