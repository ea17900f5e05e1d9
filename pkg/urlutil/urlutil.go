package urlutil

import (
	"net/url"
	"strings"
)

// NormalizeDomain reduces a user-supplied domain to the bare form used for
// index lookups. It maps equivalent spellings to a single representation.
//
// The normalization follows these rules:
//   - A leading http:// or https:// scheme is removed
//   - Everything from the first '#' or '?' onward is removed
//   - Leading dots are removed
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Idempotent: NormalizeDomain(NormalizeDomain(d)) == NormalizeDomain(d)
func NormalizeDomain(domain string) string {
	d := StripScheme(domain)
	if i := strings.IndexByte(d, '#'); i >= 0 {
		d = d[:i]
	}
	if i := strings.IndexByte(d, '?'); i >= 0 {
		d = d[:i]
	}
	return strings.TrimLeft(d, ".")
}

// StripScheme removes a leading http:// or https:// prefix.
func StripScheme(s string) string {
	if rest, ok := strings.CutPrefix(s, "https://"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(s, "http://"); ok {
		return rest
	}
	return s
}

// HostForProbe prepares a domain for building probe URLs: scheme stripped
// and trailing slashes removed.
func HostForProbe(domain string) string {
	return strings.TrimRight(StripScheme(domain), "/")
}

// SafeFileComponent replaces every run of '/', '?' or '#' with a single '_'
// so the result can be embedded in a cache filename.
func SafeFileComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '/', '?', '#':
			if !inRun {
				b.WriteByte('_')
				inRun = true
			}
		default:
			b.WriteByte(s[i])
			inRun = false
		}
	}
	return b.String()
}

// JoinReference resolves ref against base the way a browser would follow a
// Location header. Unparseable inputs fall back to ref unchanged.
func JoinReference(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
