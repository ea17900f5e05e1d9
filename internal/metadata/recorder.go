package metadata

import (
	"time"

	"github.com/rs/zerolog"
)

// MetadataSink receives observational events from every pipeline stage.
// Emission must never influence scheduling, retries, or termination.
type MetadataSink interface {
	RecordFetch(url string, statusCode int, duration time.Duration, contentType string, retryCount int)
	RecordError(at time.Time, component string, method string, cause ErrorCause, message string, attrs []Attribute)
	RecordSeedingStats(domain string, totalURLs int, totalErrors int, duration time.Duration)
}

// Recorder writes events through a zerolog logger. One recorder serves a
// whole seeder instance; it is safe for concurrent use because zerolog
// loggers are.
type Recorder struct {
	logger zerolog.Logger
}

func NewRecorder(logger zerolog.Logger) Recorder {
	return Recorder{logger: logger}
}

func (r *Recorder) RecordFetch(url string, statusCode int, duration time.Duration, contentType string, retryCount int) {
	r.logger.Debug().
		Str("url", url).
		Int("status_code", statusCode).
		Dur("duration", duration).
		Str("content_type", contentType).
		Int("retry_count", retryCount).
		Msg("fetch")
}

func (r *Recorder) RecordError(at time.Time, component string, method string, cause ErrorCause, message string, attrs []Attribute) {
	ev := r.logger.Warn().
		Time("at", at).
		Str("component", component).
		Str("method", method).
		Str("cause", cause.String())
	for _, a := range attrs {
		ev = ev.Str(string(a.Key()), a.Value())
	}
	ev.Msg(message)
}

func (r *Recorder) RecordSeedingStats(domain string, totalURLs int, totalErrors int, duration time.Duration) {
	r.logger.Info().
		Str("domain", domain).
		Int("total_urls", totalURLs).
		Int("total_errors", totalErrors).
		Dur("duration", duration).
		Msg("seeding finished")
}
