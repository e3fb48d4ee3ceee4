package twitter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultBaseURL is the Twitter API v2 host.
const DefaultBaseURL = "https://api.twitter.com"

// ClientConfig holds all configuration for the Twitter API client.
type ClientConfig struct {
	// BearerToken is the app-only OAuth 2.0 bearer token attached to every call.
	BearerToken string

	// BaseURL overrides the API host. Default: https://api.twitter.com
	BaseURL string

	// Proxy is an optional proxy URL for the default transport.
	Proxy string

	// Transport replaces the default go-stealth transport.
	Transport Doer

	// StreamTransport serves the streaming endpoints. When nil, Transport is
	// used if it implements StreamDoer, otherwise a net/http transport.
	StreamTransport StreamDoer

	// Retry configures rate-limit and server-error backoff.
	Retry RetryPolicy

	// MaxPages caps every paginated call unless the call sets its own cap.
	MaxPages int

	// RequestsPerSecond enables client-side pacing across all endpoints when > 0.
	RequestsPerSecond float64

	// Burst is the pacing bucket size. Default: 1
	Burst int

	// MetricsHook is called on each API attempt for external metrics collection.
	// endpoint is the operation name, success and rateLimited indicate the outcome.
	MetricsHook func(endpoint string, success, rateLimited bool)
}

// RetryPolicy bounds every retry the client performs.
type RetryPolicy struct {
	// BaseDelay is the first backoff after a 429/503 without reset information.
	BaseDelay time.Duration

	// MaxDelay caps a single rate-limit backoff.
	MaxDelay time.Duration

	// MaxAttempts is the number of calls (first included) made while rate limited.
	MaxAttempts int

	// MaxTotalWait caps the cumulative time spent waiting on rate limits per call.
	MaxTotalWait time.Duration

	// JitterPct randomizes backoff by ±pct. Zero disables jitter and is kept
	// as given; LoadConfig defaults it to DefaultRetryPolicy.JitterPct.
	JitterPct float64

	// ServerErrorAttempts is the number of calls (first included) made on 5xx
	// responses and retryable transport failures.
	ServerErrorAttempts int

	// ServerErrorBaseDelay is the first backoff after a 5xx.
	ServerErrorBaseDelay time.Duration

	// NoWait fails fast with RateLimitExceeded instead of blocking until reset.
	NoWait bool
}

// DefaultRetryPolicy is applied to zero-value policy fields, except JitterPct
// and NoWait whose zero values are meaningful. LoadConfig starts from all of it.
var DefaultRetryPolicy = RetryPolicy{
	BaseDelay:            5 * time.Second,
	MaxDelay:             2 * time.Minute,
	MaxAttempts:          5,
	MaxTotalWait:         16 * time.Minute,
	JitterPct:            0.2,
	ServerErrorAttempts:  3,
	ServerErrorBaseDelay: 2 * time.Second,
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *ClientConfig) defaults() {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxPages == 0 {
		cfg.MaxPages = 1000
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	cfg.Retry.defaults()
}

func (p *RetryPolicy) defaults() {
	d := DefaultRetryPolicy
	if p.BaseDelay == 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.MaxDelay == 0 {
		p.MaxDelay = d.MaxDelay
	}
	if p.MaxAttempts == 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.MaxTotalWait == 0 {
		p.MaxTotalWait = d.MaxTotalWait
	}
	if p.ServerErrorAttempts == 0 {
		p.ServerErrorAttempts = d.ServerErrorAttempts
	}
	if p.ServerErrorBaseDelay == 0 {
		p.ServerErrorBaseDelay = d.ServerErrorBaseDelay
	}
}

// fileConfig is the viper-decoded shape of ClientConfig.
type fileConfig struct {
	BearerToken       string      `mapstructure:"bearer_token"`
	BaseURL           string      `mapstructure:"base_url"`
	Proxy             string      `mapstructure:"proxy"`
	MaxPages          int         `mapstructure:"max_pages"`
	RequestsPerSecond float64     `mapstructure:"requests_per_second"`
	Burst             int         `mapstructure:"burst"`
	Retry             retryConfig `mapstructure:"retry"`
}

type retryConfig struct {
	BaseDelay            time.Duration `mapstructure:"base_delay"`
	MaxDelay             time.Duration `mapstructure:"max_delay"`
	MaxAttempts          int           `mapstructure:"max_attempts"`
	MaxTotalWait         time.Duration `mapstructure:"max_total_wait"`
	JitterPct            float64       `mapstructure:"jitter_pct"`
	ServerErrorAttempts  int           `mapstructure:"server_error_attempts"`
	ServerErrorBaseDelay time.Duration `mapstructure:"server_error_base_delay"`
	NoWait               bool          `mapstructure:"no_wait"`
}

// LoadConfig reads client configuration from an optional file and the
// environment. Environment variables use the TWITTER_ prefix
// (TWITTER_BEARER_TOKEN, TWITTER_RETRY_MAX_ATTEMPTS, ...); BEARER_TOKEN is
// accepted as a fallback for the token. An empty path skips the file.
func LoadConfig(path string) (ClientConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("twitter")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("max_pages", 1000)
	v.SetDefault("burst", 1)
	v.SetDefault("retry.base_delay", DefaultRetryPolicy.BaseDelay)
	v.SetDefault("retry.max_delay", DefaultRetryPolicy.MaxDelay)
	v.SetDefault("retry.max_attempts", DefaultRetryPolicy.MaxAttempts)
	v.SetDefault("retry.max_total_wait", DefaultRetryPolicy.MaxTotalWait)
	v.SetDefault("retry.jitter_pct", DefaultRetryPolicy.JitterPct)
	v.SetDefault("retry.server_error_attempts", DefaultRetryPolicy.ServerErrorAttempts)
	v.SetDefault("retry.server_error_base_delay", DefaultRetryPolicy.ServerErrorBaseDelay)
	v.SetDefault("retry.no_wait", false)
	v.SetDefault("requests_per_second", 0)
	v.SetDefault("proxy", "")
	if err := v.BindEnv("bearer_token", "TWITTER_BEARER_TOKEN", "BEARER_TOKEN"); err != nil {
		return ClientConfig{}, fmt.Errorf("bind bearer token env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return ClientConfig{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return ClientConfig{}, fmt.Errorf("decode config: %w", err)
	}

	return ClientConfig{
		BearerToken:       strings.TrimSpace(fc.BearerToken),
		BaseURL:           fc.BaseURL,
		Proxy:             fc.Proxy,
		MaxPages:          fc.MaxPages,
		RequestsPerSecond: fc.RequestsPerSecond,
		Burst:             fc.Burst,
		Retry: RetryPolicy{
			BaseDelay:            fc.Retry.BaseDelay,
			MaxDelay:             fc.Retry.MaxDelay,
			MaxAttempts:          fc.Retry.MaxAttempts,
			MaxTotalWait:         fc.Retry.MaxTotalWait,
			JitterPct:            fc.Retry.JitterPct,
			ServerErrorAttempts:  fc.Retry.ServerErrorAttempts,
			ServerErrorBaseDelay: fc.Retry.ServerErrorBaseDelay,
			NoWait:               fc.Retry.NoWait,
		},
	}, nil
}
