package metadata

/*
Metadata Collected
- Fetch timestamps
- HTTP status codes
- Retry counts
- Discovery source and cache outcomes

Logging Goals
- Debuggable seeding behavior
- Post-run auditability
- Failure diagnostics

Structured logging is preferred.

Allowed:
- Primitive values
- Timestamps
- URLs (as values, not objects with behavior)
- Hashes
- Status codes
- Durations
- Identifiers (domain, source tag)
*/

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - It must never be used to derive retry, continuation, or abort decisions.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

const (
	// CauseUnknown: the failure does not map cleanly to any known category.
	CauseUnknown ErrorCause = iota
	// CauseNetworkFailure: transport-level failures — timeouts, DNS, resets.
	CauseNetworkFailure
	// CauseHTTPStatus: the remote answered with a non-success status.
	CauseHTTPStatus
	// CauseContentInvalid: malformed HTML, XML, or JSON payloads.
	CauseContentInvalid
	// CauseCacheFailure: filesystem errors while reading or writing cache files.
	CauseCacheFailure
	// CauseConfigInvalid: the caller supplied a configuration that fails validation.
	CauseConfigInvalid
	// CauseRetryFailure: a retry schedule was exhausted without success.
	CauseRetryFailure
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseHTTPStatus:
		return "http_status"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseCacheFailure:
		return "cache_failure"
	case CauseConfigInvalid:
		return "config_invalid"
	case CauseRetryFailure:
		return "retry_failure"
	default:
		return "unknown"
	}
}

type AttrKey string

const (
	AttrURL     AttrKey = "url"
	AttrDomain  AttrKey = "domain"
	AttrSource  AttrKey = "source"
	AttrPath    AttrKey = "path"
	AttrMessage AttrKey = "message"
)

// Attribute is a single observational key/value pair attached to an event.
type Attribute struct {
	key   AttrKey
	value string
}

func NewAttr(key AttrKey, value string) Attribute {
	return Attribute{key: key, value: value}
}

func (a Attribute) Key() AttrKey {
	return a.key
}

func (a Attribute) Value() string {
	return a.value
}
