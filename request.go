package twitter

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// do executes req under the rate-limit and retry policy. It returns the 2xx
// response or a typed error: *RateLimitExceeded, *APIError, *TransportError,
// or the context error.
func (c *Client) do(ctx context.Context, req Request) (*RawResponse, error) {
	policy := c.cfg.Retry
	name := req.Endpoint.Name

	var (
		rateLimitRetries int
		serverRetries    int
		waited           time.Duration
		lastReset        time.Time
	)
	attempts := 0

	for {
		if err := c.waitForQuota(ctx, name, &waited, attempts); err != nil {
			return nil, err
		}
		if c.pacer != nil {
			if err := c.pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}

		attempts++
		resp, err := c.send(ctx, req)
		if err != nil {
			var tErr *TransportError
			if errors.As(err, &tErr) && tErr.retryable() && serverRetries+1 < policy.ServerErrorAttempts {
				delay := policy.serverErrorBackoff(serverRetries)
				serverRetries++
				slog.Warn("twitter: transport error, retrying",
					slog.String("endpoint", name),
					slog.String("kind", tErr.Kind.String()),
					slog.Int("attempt", attempts),
					slog.Duration("backoff", delay),
					slog.Any("error", tErr.Err))
				c.recordAPICall(name, false, false)
				if err := c.sleep(ctx, delay); err != nil {
					return nil, err
				}
				continue
			}
			c.recordAPICall(name, false, false)
			return nil, err
		}

		c.limits.observe(name, resp.Headers)

		switch {
		case resp.StatusCode == 429 || resp.StatusCode == 503:
			c.recordAPICall(name, false, true)
			if reset, ok := parseUnixHeader(resp.Header("x-rate-limit-reset")); ok {
				lastReset = reset
			}
			if rateLimitRetries+1 >= policy.MaxAttempts {
				slog.Warn("twitter: rate limit retries exhausted",
					slog.String("endpoint", name),
					slog.Int("status", resp.StatusCode),
					slog.Int("attempts", attempts))
				return nil, &RateLimitExceeded{Endpoint: name, Attempts: attempts, Waited: waited, ResetAt: lastReset}
			}
			delay := policy.rateLimitWait(resp, rateLimitRetries, c.now())
			if delay > policy.MaxTotalWait-waited || policy.NoWait {
				slog.Warn("twitter: rate limit wait exceeds budget",
					slog.String("endpoint", name),
					slog.Duration("wait", delay),
					slog.Duration("waited", waited))
				return nil, &RateLimitExceeded{Endpoint: name, Attempts: attempts, Waited: waited, ResetAt: lastReset}
			}
			rateLimitRetries++
			slog.Warn("twitter: rate limited, backing off",
				slog.String("endpoint", name),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempts),
				slog.Duration("backoff", delay))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			waited += delay
			continue

		case resp.StatusCode >= 500:
			c.recordAPICall(name, false, false)
			if serverRetries+1 >= policy.ServerErrorAttempts {
				slog.Warn("twitter: server error, giving up",
					slog.String("endpoint", name),
					slog.Int("status", resp.StatusCode),
					slog.String("body", truncateBytes(resp.Body, 500)))
				return nil, newAPIError(name, resp.StatusCode, resp.Body)
			}
			delay := policy.serverErrorBackoff(serverRetries)
			serverRetries++
			slog.Warn("twitter: server error, retrying",
				slog.String("endpoint", name),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempts),
				slog.Duration("backoff", delay))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			c.recordAPICall(name, false, false)
			apiErr := newAPIError(name, resp.StatusCode, resp.Body)
			slog.Debug("twitter: client error",
				slog.String("endpoint", name),
				slog.Int("status", resp.StatusCode),
				slog.String("body", truncateBytes(resp.Body, 500)))
			return nil, apiErr
		}

		c.recordAPICall(name, true, false)
		if attempts > 1 {
			slog.Debug("twitter: request succeeded after retries",
				slog.String("endpoint", name),
				slog.Int("attempts", attempts))
		}
		return resp, nil
	}
}

// waitForQuota blocks until the endpoint's known quota allows a call, or
// fails fast in NoWait mode. Waiting never holds the endpoint lock.
func (c *Client) waitForQuota(ctx context.Context, name string, waited *time.Duration, attempts int) error {
	for {
		wait, resetAt := c.limits.acquire(name)
		if wait <= 0 {
			return nil
		}
		if c.cfg.Retry.NoWait {
			return &RateLimitExceeded{Endpoint: name, Attempts: attempts, Waited: *waited, ResetAt: resetAt}
		}
		slog.Warn("twitter: quota exhausted, waiting for reset",
			slog.String("endpoint", name),
			slog.Duration("wait", wait),
			slog.Time("reset_at", resetAt))
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
		*waited += wait
	}
}

// getJSON runs req and decodes the single-object envelope into out.
func (c *Client) getJSON(ctx context.Context, req Request, out any) (*envelope, error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(req.Endpoint.Name, resp.Body, out, false)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
