package cache

import (
	"fmt"

	"github.com/rohmanhakim/url-seeder/internal/metadata"
	"github.com/rohmanhakim/url-seeder/pkg/failure"
)

type CacheErrorCause string

const (
	ErrCauseReadFailure  CacheErrorCause = "read failed"
	ErrCauseWriteFailure CacheErrorCause = "write failed"
	ErrCauseDecodeError  CacheErrorCause = "decode failed"
)

// CacheError is always ignorable: the cache is advisory, a read failure is
// a miss and a write failure is a no-op.
type CacheError struct {
	Message string
	Cause   CacheErrorCause
	Path    string
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: %s", e.Cause)
}

func (e *CacheError) Severity() failure.Severity {
	return failure.SeverityIgnorable
}

// mapCacheErrorToMetadataCause maps cache-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapCacheErrorToMetadataCause(err *CacheError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseReadFailure, ErrCauseWriteFailure:
		return metadata.CauseCacheFailure
	case ErrCauseDecodeError:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
