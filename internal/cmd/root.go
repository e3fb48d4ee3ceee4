package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	twitter "github.com/anatolykoptev/go-twitterapi"
)

var (
	cfgFile      string
	logLevel     string
	outputFormat string
	noWait       bool

	versionInfo struct {
		Version string
		Commit  string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
}

var rootCmd = &cobra.Command{
	Use:           "twitterapi",
	Short:         "Query the Twitter API v2 with an app-only bearer token",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevel(logLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		switch outputFormat {
		case "table", "json":
		default:
			return fmt.Errorf("unsupported output format: %s", outputFormat)
		}
		return nil
	},
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table|json")
	rootCmd.PersistentFlags().BoolVar(&noWait, "no-wait", false, "fail instead of waiting when a rate limit is exhausted")
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// newClient builds a client from --config and the environment.
func newClient() (*twitter.Client, error) {
	cfg, err := twitter.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if noWait {
		cfg.Retry.NoWait = true
	}
	cfg.MetricsHook = func(endpoint string, success, rateLimited bool) {
		slog.Debug("api call",
			slog.String("endpoint", endpoint),
			slog.Bool("success", success),
			slog.Bool("rate_limited", rateLimited))
	}
	return twitter.NewClient(cfg)
}
