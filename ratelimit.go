package twitter

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimit is a snapshot of the quota Twitter advertised for one endpoint.
type RateLimit struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// rateLimitState tracks one endpoint. known is false until a response carried
// both remaining and reset headers, and again after a response that did not.
type rateLimitState struct {
	mu        sync.Mutex
	known     bool
	limit     int
	remaining int
	resetAt   time.Time
}

// rateLimits is the client-owned registry of per-endpoint state.
type rateLimits struct {
	mu     sync.Mutex
	states map[string]*rateLimitState
	now    func() time.Time
}

func newRateLimits(now func() time.Time) *rateLimits {
	return &rateLimits{states: make(map[string]*rateLimitState), now: now}
}

func (r *rateLimits) state(endpoint string) *rateLimitState {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[endpoint]
	if !ok {
		s = &rateLimitState{}
		r.states[endpoint] = s
	}
	return s
}

// acquire decides whether a call to endpoint may go out now. It returns zero
// when the call may proceed, having reserved one unit of known quota, or the
// time to wait before asking again.
func (r *rateLimits) acquire(endpoint string) (wait time.Duration, resetAt time.Time) {
	s := r.state(endpoint)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.known {
		return 0, time.Time{}
	}
	now := r.now()
	if !now.Before(s.resetAt) {
		// Window rolled over; the next response tells us the new quota.
		s.known = false
		return 0, time.Time{}
	}
	if s.remaining <= 0 {
		return s.resetAt.Sub(now), s.resetAt
	}
	s.remaining--
	return 0, time.Time{}
}

// observe refreshes endpoint state from response headers. Partial or invalid
// headers make the limits unknown. Within the same window the lower of the
// server and local counts wins, so units reserved by calls still in flight
// stay reserved.
func (r *rateLimits) observe(endpoint string, headers map[string]string) {
	s := r.state(endpoint)
	remaining, remOK := parseIntHeader(headers, "x-rate-limit-remaining")
	resetAt, resetOK := parseUnixHeader(lookupHeader(headers, "x-rate-limit-reset"))
	limit, _ := parseIntHeader(headers, "x-rate-limit-limit")

	s.mu.Lock()
	defer s.mu.Unlock()
	if !remOK || !resetOK {
		s.known = false
		return
	}
	if s.known && resetAt.Equal(s.resetAt) {
		remaining = min(remaining, s.remaining)
	}
	s.known = true
	s.limit = limit
	s.remaining = remaining
	s.resetAt = resetAt
}

// snapshot returns the known limits for endpoint.
func (r *rateLimits) snapshot(endpoint string) (RateLimit, bool) {
	r.mu.Lock()
	s, ok := r.states[endpoint]
	r.mu.Unlock()
	if !ok {
		return RateLimit{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.known {
		return RateLimit{}, false
	}
	return RateLimit{Limit: s.limit, Remaining: s.remaining, ResetAt: s.resetAt}, true
}

func lookupHeader(headers map[string]string, name string) string {
	if headers == nil {
		return ""
	}
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func parseIntHeader(headers map[string]string, name string) (int, bool) {
	v := strings.TrimSpace(lookupHeader(headers, name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
