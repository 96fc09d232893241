package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/clarus/internal/app"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Browse scoring jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent jobs",
	RunE:  runJobsList,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <job_id>",
	Short: "Fetch a job once and show it",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

var jobsWatchCmd = &cobra.Command{
	Use:   "watch <job_id>",
	Short: "Poll a job until it is done or failed",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsWatch,
}

var jobsDownloadCmd = &cobra.Command{
	Use:   "download <job_id>",
	Short: "Download the scored CSV of a done job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsDownload,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd, jobsShowCmd, jobsWatchCmd, jobsDownloadCmd)

	jobsListCmd.Flags().Bool("json", false, "Output as JSON")
	jobsShowCmd.Flags().Bool("json", false, "Output as JSON")
	jobsWatchCmd.Flags().Bool("json", false, "Output the final job as JSON")
	jobsDownloadCmd.Flags().String("dir", ".", "Directory to save into")
}

func jobIDArg(args []string) (string, error) {
	id := strings.TrimSpace(args[0])
	if id == "" {
		return "", fmt.Errorf("job_id is required")
	}
	return id, nil
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()

	rt, err := newRuntime(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.requireSession(); err != nil {
		return err
	}

	if err := rt.app.RefreshHistory(ctx); err != nil {
		return err
	}
	jobs := rt.app.Snapshot().Jobs
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), jobs)
	}
	printJobsTable(cmd.OutOrStdout(), jobs)
	return nil
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	id, err := jobIDArg(args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	rt, err := newRuntime(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.requireSession(); err != nil {
		return err
	}

	result, err := rt.app.Inspect(ctx, id)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), result)
	}
	printJob(cmd.OutOrStdout(), result.Job, result.JobError)
	return nil
}

func runJobsWatch(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	id, err := jobIDArg(args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var observer app.Observer
	if !jsonOutput {
		observer = newProgressPrinter(out).Observe
	}
	rt, err := newRuntime(ctx, cfg, observer)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.requireSession(); err != nil {
		return err
	}

	rt.app.OpenJob(id)
	if err := waitForJob(ctx, rt.app); err != nil {
		return err
	}

	s := rt.app.Snapshot()
	if jsonOutput {
		return printJSON(out, map[string]any{"job": s.CurrentJob, "job_error": s.JobError})
	}
	printJob(out, *s.CurrentJob, s.JobError)
	return nil
}

func runJobsDownload(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	id, err := jobIDArg(args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	rt, err := newRuntime(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.requireSession(); err != nil {
		return err
	}

	result, err := rt.app.Inspect(ctx, id)
	if err != nil {
		return err
	}
	if !result.Job.Downloadable() {
		return fmt.Errorf("%w: job %s is %s", app.ErrDownloadUnavailable, id, statusLabel(result.Job.Status))
	}
	return saveDownload(ctx, rt, dir, cmd.OutOrStdout())
}
