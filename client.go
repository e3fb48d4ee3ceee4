package twitter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Client is the top-level Twitter API v2 client. It is safe for concurrent use.
type Client struct {
	transport Doer
	streamer  StreamDoer
	cfg       ClientConfig
	limits    *rateLimits
	pacer     *rate.Limiter

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a fully-wired Twitter client.
func NewClient(cfg ClientConfig) (*Client, error) {
	cfg.defaults()
	if cfg.BearerToken == "" {
		return nil, ErrMissingBearerToken
	}

	transport := cfg.Transport
	if transport == nil {
		t, err := newStealthTransport(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		transport = t
	}

	streamer := cfg.StreamTransport
	if streamer == nil {
		if sd, ok := transport.(StreamDoer); ok {
			streamer = sd
		} else {
			streamer = &httpTransport{client: http.DefaultClient}
		}
	}

	c := &Client{
		transport: transport,
		streamer:  streamer,
		cfg:       cfg,
		now:       time.Now,
		sleep:     sleepCtx,
	}
	c.limits = newRateLimits(func() time.Time { return c.now() })

	if cfg.RequestsPerSecond > 0 {
		c.pacer = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
		slog.Debug("twitter: client pacing enabled",
			slog.Float64("rps", cfg.RequestsPerSecond),
			slog.Int("burst", cfg.Burst))
	}
	return c, nil
}

// RateLimit returns the last quota observed for endpoint, if known.
func (c *Client) RateLimit(endpoint string) (RateLimit, bool) {
	return c.limits.snapshot(endpoint)
}

// recordAPICall calls the metrics hook if configured.
func (c *Client) recordAPICall(endpoint string, success, rateLimited bool) {
	if c.cfg.MetricsHook != nil {
		c.cfg.MetricsHook(endpoint, success, rateLimited)
	}
}
