package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	maxTrends int
	usageDays int
)

var trendsCmd = &cobra.Command{
	Use:   "trends <woeid>",
	Short: "Show trending topics for a location (1 = worldwide)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		woeid, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid woeid %q: %w", args[0], err)
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		trends, err := c.TrendsByWOEID(cmd.Context(), woeid, maxTrends)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return writeJSON(cmd.OutOrStdout(), trends)
		}
		return renderTrends(cmd.OutOrStdout(), trends)
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show the project's tweet consumption",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		u, err := c.Usage(cmd.Context(), usageDays)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return writeJSON(cmd.OutOrStdout(), u)
		}
		return renderUsage(cmd.OutOrStdout(), u)
	},
}

func init() {
	rootCmd.AddCommand(trendsCmd, usageCmd)
	trendsCmd.Flags().IntVar(&maxTrends, "max", 20, "number of trends (1..50)")
	usageCmd.Flags().IntVar(&usageDays, "days", 0, "days of history (1..90, 0 = API default)")
}
