package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	twitter "github.com/anatolykoptev/go-twitterapi"
)

var (
	searchAll      bool
	searchLimit    int
	searchMaxPages int
	searchSince    string
	searchUntil    string
	searchSort     string
	countsAll      bool
	countsGran     string
	listLimit      int
	listMaxPages   int
)

var tweetsCmd = &cobra.Command{
	Use:   "tweets <id>...",
	Short: "Look up tweets by id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.TweetsByIDs(cmd.Context(), args, nil)
		if err != nil {
			return err
		}
		return printTweets(cmd, p)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search recent tweets (or the full archive with --all)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		opts := &twitter.SearchOptions{
			SortOrder:   searchSort,
			PageOptions: twitter.PageOptions{Limit: searchLimit, MaxPages: searchMaxPages},
		}
		if opts.StartTime, err = parseFlagTime("since", searchSince); err != nil {
			return err
		}
		if opts.EndTime, err = parseFlagTime("until", searchUntil); err != nil {
			return err
		}
		search := c.SearchRecent
		if searchAll {
			search = c.SearchAll
		}
		p, err := search(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		return printTweets(cmd, p)
	},
}

var countsCmd = &cobra.Command{
	Use:   "counts <query>",
	Short: "Count tweets matching a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		opts := &twitter.CountsOptions{Granularity: countsGran}
		if opts.StartTime, err = parseFlagTime("since", searchSince); err != nil {
			return err
		}
		if opts.EndTime, err = parseFlagTime("until", searchUntil); err != nil {
			return err
		}
		counts := c.CountsRecent
		if countsAll {
			counts = c.CountsAll
		}
		p, err := counts(cmd.Context(), args[0], opts)
		if err != nil {
			return err
		}
		res, err := collect(p)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		return renderCounts(cmd.OutOrStdout(), res.Items)
	},
}

var quotesCmd = &cobra.Command{
	Use:   "quotes <tweet-id>",
	Short: "List tweets quoting a tweet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.QuoteTweets(cmd.Context(), args[0], listOptions())
		if err != nil {
			return err
		}
		return printTweets(cmd, p)
	},
}

var retweetedByCmd = &cobra.Command{
	Use:   "retweeted-by <tweet-id>",
	Short: "List users who retweeted a tweet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.RetweetedBy(cmd.Context(), args[0], listOptions())
		if err != nil {
			return err
		}
		return printUsers(cmd, p)
	},
}

func init() {
	rootCmd.AddCommand(tweetsCmd, searchCmd, countsCmd, quotesCmd, retweetedByCmd)

	searchCmd.Flags().BoolVar(&searchAll, "all", false, "search the full archive")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 100, "maximum number of tweets (0 = no limit)")
	searchCmd.Flags().IntVar(&searchMaxPages, "max-pages", 0, "maximum number of pages (0 = config default)")
	searchCmd.Flags().StringVar(&searchSort, "sort", "", "sort order: recency|relevancy")
	for _, c := range []*cobra.Command{searchCmd, countsCmd} {
		c.Flags().StringVar(&searchSince, "since", "", "start time (RFC 3339 or YYYY-MM-DD)")
		c.Flags().StringVar(&searchUntil, "until", "", "end time (RFC 3339 or YYYY-MM-DD)")
	}
	countsCmd.Flags().BoolVar(&countsAll, "all", false, "count over the full archive")
	countsCmd.Flags().StringVar(&countsGran, "granularity", "day", "bucket size: minute|hour|day")

	for _, c := range []*cobra.Command{quotesCmd, retweetedByCmd} {
		addListFlags(c)
	}
}

func addListFlags(c *cobra.Command) {
	c.Flags().IntVar(&listLimit, "limit", 100, "maximum number of items (0 = no limit)")
	c.Flags().IntVar(&listMaxPages, "max-pages", 0, "maximum number of pages (0 = config default)")
}

func listOptions() *twitter.ListOptions {
	return &twitter.ListOptions{PageOptions: twitter.PageOptions{Limit: listLimit, MaxPages: listMaxPages}}
}

func printTweets(cmd *cobra.Command, p *twitter.Pager[twitter.Tweet]) error {
	res, err := collect(p)
	if err != nil {
		return err
	}
	if outputFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	printPartialErrors(cmd.ErrOrStderr(), res.Errors)
	return renderTweets(cmd.OutOrStdout(), res.Items, res.Includes)
}

func printUsers(cmd *cobra.Command, p *twitter.Pager[twitter.User]) error {
	res, err := collect(p)
	if err != nil {
		return err
	}
	if outputFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	printPartialErrors(cmd.ErrOrStderr(), res.Errors)
	return renderUsers(cmd.OutOrStdout(), res.Items)
}

// parseFlagTime accepts RFC 3339 timestamps or bare dates.
func parseFlagTime(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("--%s: cannot parse %q as RFC 3339 or YYYY-MM-DD", name, v)
}
