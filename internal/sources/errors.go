package sources

import (
	"fmt"

	"github.com/rohmanhakim/url-seeder/internal/metadata"
	"github.com/rohmanhakim/url-seeder/pkg/failure"
)

type SourceErrorCause string

const (
	ErrCauseIndexUnavailable SourceErrorCause = "index id unavailable"
	ErrCauseCdxUnavailable   SourceErrorCause = "cdx endpoint unavailable"
	ErrCauseStreamCorrupt    SourceErrorCause = "cdx stream corrupt"
)

type SourceError struct {
	Message   string
	Retryable bool
	Cause     SourceErrorCause
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source error: %s", e.Cause)
}

func (e *SourceError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *SourceError) IsRetryable() bool {
	return e.Retryable
}

// mapSourceErrorToMetadataCause maps source-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapSourceErrorToMetadataCause(err *SourceError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseIndexUnavailable, ErrCauseCdxUnavailable:
		return metadata.CauseNetworkFailure
	case ErrCauseStreamCorrupt:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
