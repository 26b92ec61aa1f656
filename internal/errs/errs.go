// Package errs implements the error taxonomy of the design-tool integration
// server: a closed set of typed errors, each carrying whether it is
// retryable, grounded on the teacher's internal/errors package
// (typed struct + Error() + Unwrap() + a recoverability flag).
package errs

import (
	"fmt"
	"time"
)

// Kind is one of the error kinds named by the specification.
type Kind string

const (
	KindNetwork         Kind = "network"
	KindAuth            Kind = "auth"
	KindNotFound        Kind = "not_found"
	KindRateLimited     Kind = "rate_limited"
	KindParse           Kind = "parse"
	KindTimeout         Kind = "timeout"
	KindUnknown         Kind = "unknown"
	KindCacheCorruption Kind = "cache_corruption"
)

// Retryable reports whether the kind is retried by policy (spec.md §7).
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindRateLimited:
		return true
	default:
		return false
	}
}

// Error is the single typed error used across nodebridge. Operation names
// the call that failed (e.g. "GetNode", "disk.read"); Underlying is the
// wrapped cause if any.
type Error struct {
	Kind       Kind
	Operation  string
	FileKey    string
	NodeID     string
	Code       int // HTTP status or renderer exit detail, when applicable
	Body       string
	Underlying error
	Timestamp  time.Time
}

// New creates a typed error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{
		Kind:       kind,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithNode attaches file/node context.
func (e *Error) WithNode(fileKey, nodeID string) *Error {
	e.FileKey = fileKey
	e.NodeID = nodeID
	return e
}

// WithHTTP attaches a status code and a body snippet (UnknownError carries
// these per spec.md §7).
func (e *Error) WithHTTP(code int, body string) *Error {
	e.Code = code
	if len(body) > 256 {
		body = body[:256]
	}
	e.Body = body
	return e
}

func (e *Error) Error() string {
	switch {
	case e.NodeID != "":
		return fmt.Sprintf("%s: %s failed for %s:%s: %v", e.Kind, e.Operation, e.FileKey, e.NodeID, e.Underlying)
	case e.Code != 0:
		return fmt.Sprintf("%s: %s failed (status %d): %v", e.Kind, e.Operation, e.Code, e.Underlying)
	default:
		return fmt.Sprintf("%s: %s failed: %v", e.Kind, e.Operation, e.Underlying)
	}
}

// Unwrap supports errors.Is/As against the underlying cause.
func (e *Error) Unwrap() error { return e.Underlying }

// Retryable reports whether the policy layer should retry this error.
func (e *Error) Retryable() bool { return e.Kind.Retryable() }

// FromHTTPStatus classifies an HTTP response status into the taxonomy.
func FromHTTPStatus(op string, status int, body string) *Error {
	var kind Kind
	switch {
	case status == 401 || status == 403:
		kind = KindAuth
	case status == 404:
		kind = KindNotFound
	case status == 429:
		kind = KindRateLimited
	case status >= 500:
		kind = KindNetwork
	default:
		kind = KindUnknown
	}
	return New(kind, op, fmt.Errorf("http status %d", status)).WithHTTP(status, body)
}

// AsDSLError renders the error as the one-line JSON payload a stream frame
// uses in place of a DSL body (spec.md §4.2: "dsl = {\"error\":\"...\"}").
func AsDSLError(err error) string {
	msg := err.Error()
	// minimal JSON string escaping; errors never contain control characters
	// from our own taxonomy, but underlying messages might.
	escaped := make([]byte, 0, len(msg)+8)
	for i := 0; i < len(msg); i++ {
		switch c := msg[i]; c {
		case '"', '\\':
			escaped = append(escaped, '\\', c)
		case '\n':
			escaped = append(escaped, '\\', 'n')
		default:
			escaped = append(escaped, c)
		}
	}
	return `{"error":"` + string(escaped) + `"}`
}
