package seeder

import (
	"github.com/rohmanhakim/url-seeder/internal/extractor"
)

type Status string

const (
	// StatusValid means the requested check succeeded.
	StatusValid Status = "valid"
	// StatusNotValid means the requested check failed.
	StatusNotValid Status = "not_valid"
	// StatusUnknown means no check was requested.
	StatusUnknown Status = "unknown"
)

// URLRecord is one discovered URL with its validation outcome. The ranker
// is the only component that mutates a record after the validator created
// it, and only by attaching or filtering relevance scores.
type URLRecord struct {
	URL            string             `json:"url"`
	Status         Status             `json:"status"`
	HeadData       extractor.HeadData `json:"head_data"`
	RelevanceScore *float64           `json:"relevance_score,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// cacheRecord is the persisted shape: a URLRecord minus transient fields.
// Relevance scores depend on the query of one particular call and never
// enter the cache.
type cacheRecord struct {
	URL      string             `json:"url"`
	Status   Status             `json:"status"`
	HeadData extractor.HeadData `json:"head_data"`
}
