package cmd

import (
	"github.com/spf13/cobra"

	twitter "github.com/anatolykoptev/go-twitterapi"
)

var (
	byUsername      bool
	timelineExclude []string
)

var usersCmd = &cobra.Command{
	Use:   "users <id|username>...",
	Short: "Look up users by id (or by handle with --by-username)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		var p *twitter.Pager[twitter.User]
		if byUsername {
			p, err = c.UsersByUsernames(cmd.Context(), args, nil)
		} else {
			p, err = c.UsersByIDs(cmd.Context(), args, nil)
		}
		if err != nil {
			return err
		}
		return printUsers(cmd, p)
	},
}

var followersCmd = &cobra.Command{
	Use:   "followers <id|@username>",
	Short: "List a user's followers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		id, err := c.ResolveUserID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		p, err := c.Followers(cmd.Context(), id, listOptions())
		if err != nil {
			return err
		}
		return printUsers(cmd, p)
	},
}

var followingCmd = &cobra.Command{
	Use:   "following <id|@username>",
	Short: "List accounts a user follows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		id, err := c.ResolveUserID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		p, err := c.Following(cmd.Context(), id, listOptions())
		if err != nil {
			return err
		}
		return printUsers(cmd, p)
	},
}

var timelineCmd = &cobra.Command{
	Use:   "timeline <id|@username>",
	Short: "List a user's tweets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		id, err := c.ResolveUserID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		opts := &twitter.TimelineOptions{
			Exclude:     timelineExclude,
			PageOptions: twitter.PageOptions{Limit: listLimit, MaxPages: listMaxPages},
		}
		p, err := c.UserTweets(cmd.Context(), id, opts)
		if err != nil {
			return err
		}
		return printTweets(cmd, p)
	},
}

func init() {
	rootCmd.AddCommand(usersCmd, followersCmd, followingCmd, timelineCmd)

	usersCmd.Flags().BoolVar(&byUsername, "by-username", false, "arguments are handles, not ids")
	timelineCmd.Flags().StringSliceVar(&timelineExclude, "exclude", nil, "exclude replies and/or retweets")
	for _, c := range []*cobra.Command{followersCmd, followingCmd, timelineCmd} {
		addListFlags(c)
	}
}
