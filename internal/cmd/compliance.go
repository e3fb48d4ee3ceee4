package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	twitter "github.com/anatolykoptev/go-twitterapi"
)

var (
	jobType      string
	jobStatus    string
	jobName      string
	jobResumable bool
)

var complianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "Manage batch compliance jobs",
}

var complianceCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a compliance job",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		job, err := c.CreateComplianceJob(cmd.Context(), twitter.ComplianceJobType(jobType), jobName, jobResumable)
		if err != nil {
			return err
		}
		slog.Info("compliance job created", slog.String("id", job.ID), slog.String("status", string(job.Status)))
		return printJobs(cmd, []twitter.ComplianceJob{*job})
	},
}

var complianceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent compliance jobs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		jobs, err := c.ComplianceJobs(cmd.Context(), twitter.ComplianceJobType(jobType), twitter.ComplianceJobStatus(jobStatus))
		if err != nil {
			return err
		}
		return printJobs(cmd, jobs)
	},
}

var complianceGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show a compliance job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		job, err := c.ComplianceJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJobs(cmd, []twitter.ComplianceJob{*job})
	},
}

var complianceUploadCmd = &cobra.Command{
	Use:   "upload <job-id> <ids-file>",
	Short: "Upload newline-separated ids to a job",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		job, err := c.ComplianceJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close() // nolint:errcheck // read-only
		if err := c.UploadComplianceIDs(cmd.Context(), job, f); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s to job %s\n", args[1], job.ID)
		return err
	},
}

var complianceDownloadCmd = &cobra.Command{
	Use:   "download <job-id>",
	Short: "Download the results of a completed job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		job, err := c.ComplianceJob(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		results, err := c.DownloadComplianceResults(cmd.Context(), job)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return writeJSON(cmd.OutOrStdout(), results)
		}
		return renderComplianceResults(cmd.OutOrStdout(), results)
	},
}

func init() {
	rootCmd.AddCommand(complianceCmd)
	complianceCmd.AddCommand(complianceCreateCmd, complianceListCmd, complianceGetCmd, complianceUploadCmd, complianceDownloadCmd)

	for _, c := range []*cobra.Command{complianceCreateCmd, complianceListCmd} {
		c.Flags().StringVar(&jobType, "type", "tweets", "job type: tweets|users")
	}
	complianceCreateCmd.Flags().StringVar(&jobName, "name", "", "job name")
	complianceCreateCmd.Flags().BoolVar(&jobResumable, "resumable", false, "request a resumable upload URL")
	complianceListCmd.Flags().StringVar(&jobStatus, "status", "", "filter by status: created|in_progress|failed|complete|expired")
}

func printJobs(cmd *cobra.Command, jobs []twitter.ComplianceJob) error {
	if outputFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), jobs)
	}
	return renderJobs(cmd.OutOrStdout(), jobs)
}
