package config

import (
	"fmt"

	"github.com/rohmanhakim/url-seeder/pkg/failure"
)

type ConfigErrorCause string

const (
	ErrCauseInvalidSource        ConfigErrorCause = "invalid source"
	ErrCauseInvalidConcurrency   ConfigErrorCause = "invalid concurrency"
	ErrCauseInvalidMaxURLs       ConfigErrorCause = "invalid max_urls"
	ErrCauseInvalidThreshold     ConfigErrorCause = "invalid score_threshold"
	ErrCauseInvalidScoringMethod ConfigErrorCause = "invalid scoring_method"
	ErrCauseInvalidPattern       ConfigErrorCause = "invalid pattern"
)

// ConfigError covers every BadInput condition. It is always fatal: the
// caller supplied something the pipeline cannot honor.
type ConfigError struct {
	Message string
	Cause   ConfigErrorCause
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Cause, e.Message)
}

func (e *ConfigError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// Is allows errors.Is to match ConfigError types
func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}
