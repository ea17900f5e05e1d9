package sources

import (
	"context"

	"github.com/rohmanhakim/url-seeder/internal/pattern"
	"github.com/rohmanhakim/url-seeder/pkg/failure"
)

/*
Source Responsibilities
- Enumerate candidate URLs for a domain from one authoritative origin
- Apply the pattern filter before emitting
- Maintain the per-source URL list cache
- Knows nothing about:
	- validation
	- the worker pool
	- scoring

A source is a finite enumeration that may fail. The producer drains the
configured sources sequentially; a source never decides retry, continuation,
or abortion of the pipeline beyond its own scope.
*/

// EmitFunc receives each discovered URL that passed the pattern filter.
// Returning false tells the source to stop enumerating.
type EmitFunc func(url string) bool

type Source interface {
	Name() string
	Discover(
		ctx context.Context,
		domain string,
		matcher pattern.Matcher,
		force bool,
		emit EmitFunc,
	) failure.ClassifiedError
}
