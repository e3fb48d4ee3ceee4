package twitter

import (
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
)

// rateLimitBackoff returns the exponential delay before rate-limit retry n (0-based).
func (p RetryPolicy) rateLimitBackoff(n int) time.Duration {
	return stealth.BackoffConfig{
		InitialWait: p.BaseDelay,
		MaxWait:     p.MaxDelay,
		Multiplier:  2.0,
		JitterPct:   p.JitterPct,
	}.Duration(n)
}

// serverErrorBackoff returns the exponential delay before 5xx retry n (0-based).
func (p RetryPolicy) serverErrorBackoff(n int) time.Duration {
	return stealth.BackoffConfig{
		InitialWait: p.ServerErrorBaseDelay,
		MaxWait:     p.MaxDelay,
		Multiplier:  2.0,
		JitterPct:   p.JitterPct,
	}.Duration(n)
}

// rateLimitWait picks the delay after a 429/503: Retry-After first, then the
// advertised reset for 429, then exponential backoff.
func (p RetryPolicy) rateLimitWait(resp *RawResponse, retry int, now time.Time) time.Duration {
	if d, ok := parseRetryAfter(resp.Header("retry-after"), now); ok {
		return d
	}
	if resp.StatusCode == 429 {
		if resetAt, ok := parseUnixHeader(resp.Header("x-rate-limit-reset")); ok && resetAt.After(now) {
			return resetAt.Sub(now)
		}
	}
	return p.rateLimitBackoff(retry)
}
