package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMissingBearerToken is returned by NewClient when no bearer token is configured.
	ErrMissingBearerToken = errors.New("twitter: bearer token is required")

	// ErrEmptyIDs is returned when a lookup is called without any identifiers.
	ErrEmptyIDs = errors.New("twitter: empty identifier set")

	// ErrInvalidArgument wraps caller input that fails validation before any request is made.
	ErrInvalidArgument = errors.New("twitter: invalid argument")

	// ErrPagerConsumed is yielded when a Pager is iterated a second time.
	ErrPagerConsumed = errors.New("twitter: pager already consumed")
)

// TransportErrorKind tells why the transport failed to produce a response.
type TransportErrorKind int

const (
	KindConnection TransportErrorKind = iota // dial, reset, proxy, DNS
	KindTimeout                              // deadline hit before a response
	KindMalformed                            // response could not be read
)

func (k TransportErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindTimeout:
		return "timeout"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// TransportError is a failure below HTTP: no usable status code was received.
type TransportError struct {
	Kind     TransportErrorKind
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport %s: %v", e.Endpoint, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// retryable reports whether the 5xx retry budget applies to this failure.
func (e *TransportError) retryable() bool {
	return e.Kind == KindConnection || e.Kind == KindTimeout
}

// RateLimitExceeded is returned once every rate-limit retry has been spent,
// or immediately in NoWait mode when the endpoint quota is known to be exhausted.
type RateLimitExceeded struct {
	Endpoint string
	Attempts int
	Waited   time.Duration
	ResetAt  time.Time
}

func (e *RateLimitExceeded) Error() string {
	msg := fmt.Sprintf("%s: rate limit exceeded after %d attempts (waited %s)", e.Endpoint, e.Attempts, e.Waited)
	if !e.ResetAt.IsZero() {
		msg += ", resets at " + e.ResetAt.UTC().Format(time.RFC3339)
	}
	return msg
}

// APIError is an HTTP-level error reported by Twitter. The problem fields are
// copied verbatim from the response body.
type APIError struct {
	Endpoint   string
	StatusCode int
	Title      string
	Detail     string
	Type       string
	Errors     []ErrorDetail
	Body       []byte
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}
	if msg == "" && len(e.Errors) > 0 {
		msg = e.Errors[0].Message
		if msg == "" {
			msg = e.Errors[0].Detail
		}
	}
	if msg == "" {
		msg = truncateBytes(e.Body, 200)
	}
	return fmt.Sprintf("%s HTTP %d: %s", e.Endpoint, e.StatusCode, msg)
}

// IsClientError reports a 4xx status.
func (e *APIError) IsClientError() bool { return e.StatusCode >= 400 && e.StatusCode < 500 }

// IsNotFound reports a 404 or a resource-not-found problem type.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404 || classifyProblem(e.Type) == problemNotFound
}

// SchemaError means a successful response body did not match the expected contract.
type SchemaError struct {
	Endpoint string
	Err      error
	Body     []byte
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: unexpected response schema: %v: %s", e.Endpoint, e.Err, truncateBytes(e.Body, 200))
}

func (e *SchemaError) Unwrap() error { return e.Err }

// problemClass groups Twitter problem type URIs.
type problemClass int

const (
	problemNone problemClass = iota
	problemInvalidRequest
	problemNotFound
	problemNotAuthorized
	problemForbidden
	problemUsageCapped
	problemConnection
	problemOther
)

// classifyProblem maps a https://api.twitter.com/2/problems/... type URI to a class.
func classifyProblem(typ string) problemClass {
	if typ == "" {
		return problemNone
	}
	i := strings.LastIndex(typ, "/")
	switch typ[i+1:] {
	case "invalid-request":
		return problemInvalidRequest
	case "resource-not-found":
		return problemNotFound
	case "not-authorized-for-resource", "not-authorized-for-field":
		return problemNotAuthorized
	case "client-forbidden", "unsupported-authentication":
		return problemForbidden
	case "usage-capped":
		return problemUsageCapped
	case "streaming-connection", "client-disconnected", "operational-disconnect":
		return problemConnection
	}
	return problemOther
}

// newAPIError builds an APIError from a non-2xx response, keeping the raw body
// when it is not a problem document.
func newAPIError(endpoint string, status int, body []byte) *APIError {
	apiErr := &APIError{Endpoint: endpoint, StatusCode: status, Body: body}
	var problem struct {
		Title  string        `json:"title"`
		Detail string        `json:"detail"`
		Type   string        `json:"type"`
		Errors []ErrorDetail `json:"errors"`
	}
	if json.Unmarshal(body, &problem) == nil {
		apiErr.Title = problem.Title
		apiErr.Detail = problem.Detail
		apiErr.Type = problem.Type
		apiErr.Errors = problem.Errors
	}
	return apiErr
}

// classifyTransportError wraps a transport failure with its kind.
func classifyTransportError(endpoint string, err error) *TransportError {
	kind := KindConnection
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case strings.Contains(strings.ToLower(err.Error()), "timeout"):
		kind = KindTimeout
	case isMalformedError(err):
		kind = KindMalformed
	}
	return &TransportError{Kind: kind, Endpoint: endpoint, Err: err}
}

func isMalformedError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") ||
		strings.Contains(msg, "unexpected eof") ||
		strings.Contains(msg, "decompress") ||
		strings.Contains(msg, "invalid header")
}

// parseUnixHeader parses a unix-seconds header value. ok is false when the
// value is missing or invalid.
func parseUnixHeader(v string) (time.Time, bool) {
	ts, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || ts <= 0 {
		return time.Time{}, false
	}
	return time.Unix(ts, 0), true
}

// maxRetryAfter caps Retry-After so huge values cannot overflow a Duration.
const maxRetryAfter = 100 * 365 * 24 * time.Hour

// parseRetryAfter parses a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		if secs > int64(maxRetryAfter/time.Second) {
			return maxRetryAfter, true
		}
		return time.Duration(secs) * time.Second, true
	}
	if isDigits(v) {
		// Too large even for int64.
		return maxRetryAfter, true
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

func isDigits(s string) bool {
	return s != "" && strings.Trim(s, "0123456789") == ""
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
