package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/spf13/cobra"

	twitter "github.com/anatolykoptev/go-twitterapi"
)

var (
	streamLimit     int
	streamBackfill  int
	streamUsers     bool
	streamPartition int
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Follow the filtered stream (see `rules`)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		seq, err := c.FilteredStream(cmd.Context(), &twitter.StreamOptions{BackfillMinutes: streamBackfill})
		if err != nil {
			return err
		}
		return follow(cmd.OutOrStdout(), seq, streamLimit, formatStreamTweet)
	},
}

var complianceStreamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Follow a compliance event stream",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		opts := &twitter.ComplianceStreamOptions{Partition: streamPartition, BackfillMinutes: streamBackfill}
		var seq iter.Seq2[*twitter.ComplianceEvent, error]
		if streamUsers {
			seq, err = c.UserComplianceStream(cmd.Context(), opts)
		} else {
			seq, err = c.TweetComplianceStream(cmd.Context(), opts)
		}
		if err != nil {
			return err
		}
		return follow(cmd.OutOrStdout(), seq, streamLimit, formatComplianceEvent)
	},
}

func init() {
	rootCmd.AddCommand(streamCmd)
	complianceCmd.AddCommand(complianceStreamCmd)

	for _, c := range []*cobra.Command{streamCmd, complianceStreamCmd} {
		c.Flags().IntVar(&streamLimit, "limit", 0, "stop after this many events (0 follows until interrupted)")
		c.Flags().IntVar(&streamBackfill, "backfill", 0, "minutes of missed events to replay (0-5)")
	}
	complianceStreamCmd.Flags().BoolVar(&streamUsers, "users", false, "follow user events instead of tweet events")
	complianceStreamCmd.Flags().IntVar(&streamPartition, "partition", 1, "partition to follow (1-4)")
}

// follow prints one line per event: compact JSON with -o json, otherwise the
// text form produced by format.
func follow[T any](w io.Writer, seq iter.Seq2[*T, error], limit int, format func(*T) string) error {
	n := 0
	for item, err := range seq {
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			payload, err := json.Marshal(item)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w, string(payload)); err != nil {
				return err
			}
		} else if _, err := fmt.Fprintln(w, format(item)); err != nil {
			return err
		}
		n++
		if limit > 0 && n >= limit {
			return nil
		}
	}
	return nil
}

func formatStreamTweet(st *twitter.StreamTweet) string {
	author := st.Tweet.AuthorID
	if u, ok := st.Includes.User(author); ok {
		author = "@" + u.Username
	}
	tags := make([]string, 0, len(st.MatchingRules))
	for _, r := range st.MatchingRules {
		tag := r.Tag
		if tag == "" {
			tag = r.ID
		}
		tags = append(tags, tag)
	}
	return fmt.Sprintf("%s %s [%s] %s", st.Tweet.ID, author, strings.Join(tags, ","), shorten(st.Tweet.Text, 100))
}

func formatComplianceEvent(ev *twitter.ComplianceEvent) string {
	subject := "tweet " + ev.TweetID
	if ev.UserID != "" {
		subject = "user " + ev.UserID
	}
	line := fmt.Sprintf("%s %s %s", ev.EventAt.UTC().Format(time.RFC3339), ev.Type, subject)
	if len(ev.WithheldInCountries) > 0 {
		line += " withheld in " + strings.Join(ev.WithheldInCountries, ",")
	}
	return line
}
