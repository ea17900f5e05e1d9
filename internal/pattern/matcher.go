package pattern

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/rohmanhakim/url-seeder/internal/config"
	"github.com/rohmanhakim/url-seeder/pkg/urlutil"
)

/*
Matcher Responsibilities
- Decide whether a discovered URL passes the configured filter
- Knows nothing about:
	- discovery sources
	- validation
	- caching

Patterns use shell-style wildcards: '*', '?', and '[]' classes. A URL is
accepted when the glob matches the full URL, the URL with its scheme
removed, or additionally with a leading "www." removed. The fallbacks let
"example.com/*" match "https://www.example.com/docs" the way users expect.
*/

type Matcher struct {
	raw string
	g   glob.Glob
}

// Compile builds a Matcher from a shell-style pattern. An empty pattern
// is treated as "*". A malformed pattern is a caller error.
func Compile(raw string) (Matcher, error) {
	if raw == "" {
		raw = "*"
	}
	g, err := glob.Compile(raw)
	if err != nil {
		return Matcher{}, &config.ConfigError{
			Message: fmt.Sprintf("cannot compile pattern %q: %v", raw, err),
			Cause:   config.ErrCauseInvalidPattern,
		}
	}
	return Matcher{raw: raw, g: g}, nil
}

// MustCompile is a test helper for patterns known to be valid.
func MustCompile(raw string) Matcher {
	m, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Matcher) Raw() string {
	return m.raw
}

// MatchesEverything reports whether the pattern is the catch-all "*".
func (m Matcher) MatchesEverything() bool {
	return m.raw == "*"
}

func (m Matcher) Matches(url string) bool {
	if m.g == nil {
		return false
	}
	if m.g.Match(url) {
		return true
	}
	canon := urlutil.StripScheme(url)
	if m.g.Match(canon) {
		return true
	}
	if rest, ok := strings.CutPrefix(canon, "www."); ok {
		return m.g.Match(rest)
	}
	return false
}
