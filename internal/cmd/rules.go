package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	twitter "github.com/anatolykoptev/go-twitterapi"
)

var (
	rulesDryRun bool
	ruleTag     string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage filtered stream rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list [id]...",
	Short: "List stream rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		p, err := c.Rules(cmd.Context(), args, nil)
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
		return renderRules(cmd.OutOrStdout(), res.Items)
	},
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <rule>...",
	Short: "Add stream rules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		rules := make([]twitter.Rule, len(args))
		for i, v := range args {
			rules[i] = twitter.Rule{Value: v, Tag: ruleTag}
		}
		res, err := c.AddRules(cmd.Context(), rules, rulesDryRun)
		if err != nil {
			return err
		}
		return printRulesResult(cmd, res)
	},
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete stream rules by id",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		res, err := c.DeleteRules(cmd.Context(), args, rulesDryRun)
		if err != nil {
			return err
		}
		return printRulesResult(cmd, res)
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd, rulesAddCmd, rulesDeleteCmd)
	rulesCmd.PersistentFlags().BoolVar(&rulesDryRun, "dry-run", false, "validate without applying")
	rulesAddCmd.Flags().StringVar(&ruleTag, "tag", "", "tag attached to every added rule")
}

func printRulesResult(cmd *cobra.Command, res *twitter.RulesResult) error {
	if outputFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	printPartialErrors(cmd.ErrOrStderr(), res.Errors)
	if len(res.Rules) > 0 {
		if err := renderRules(cmd.OutOrStdout(), res.Rules); err != nil {
			return err
		}
	}
	s := res.Summary
	parts := []string{
		fmt.Sprintf("created=%d", s.Created),
		fmt.Sprintf("not_created=%d", s.NotCreated),
		fmt.Sprintf("deleted=%d", s.Deleted),
		fmt.Sprintf("not_deleted=%d", s.NotDeleted),
		fmt.Sprintf("valid=%d", s.Valid),
		fmt.Sprintf("invalid=%d", s.Invalid),
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(parts, " "))
	return err
}
