package seeder

import (
	"fmt"

	"github.com/rohmanhakim/url-seeder/pkg/failure"
)

type SeederErrorCause string

const (
	ErrCauseProducerFailed SeederErrorCause = "producer failed before yielding any URL"
	ErrCauseCancelled      SeederErrorCause = "cancelled"
)

type SeederError struct {
	Message string
	Cause   SeederErrorCause
	Wrapped error
}

func (e *SeederError) Error() string {
	return fmt.Sprintf("seeder error: %s: %s", e.Cause, e.Message)
}

func (e *SeederError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *SeederError) Unwrap() error {
	return e.Wrapped
}
