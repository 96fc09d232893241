package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/clarus/internal/app"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file.csv>",
	Short: "Upload a traffic CSV for scoring",
	Long: `Upload a CSV capture. The backend answers with a queued job. With
--watch the job is polled until it is done or failed; --download also saves
the scored CSV once it is done.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().Bool("watch", false, "Poll the job until it finishes")
	uploadCmd.Flags().String("download", "", "Save the scored CSV into this directory (implies --watch)")
	uploadCmd.Flags().Bool("json", false, "Output as JSON")
}

func runUpload(cmd *cobra.Command, args []string) error {
	watch, _ := cmd.Flags().GetBool("watch")
	downloadDir, _ := cmd.Flags().GetString("download")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if downloadDir != "" {
		watch = true
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	var observer app.Observer
	if watch && !jsonOutput {
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

	job, err := rt.app.Upload(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return rt.bannerError(err)
	}
	if !watch {
		if jsonOutput {
			return printJSON(out, job)
		}
		printJob(out, *job, "")
		return nil
	}

	if err := waitForJob(ctx, rt.app); err != nil {
		return err
	}
	s := rt.app.Snapshot()
	if jsonOutput {
		if err := printJSON(out, s.CurrentJob); err != nil {
			return err
		}
	} else {
		printJob(out, *s.CurrentJob, s.JobError)
	}

	if downloadDir == "" {
		return nil
	}
	return saveDownload(ctx, rt, downloadDir, cmd.ErrOrStderr())
}

// waitForJob blocks until the current poll settles or ctx is cancelled.
func waitForJob(ctx context.Context, a *app.App) error {
	select {
	case <-a.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func saveDownload(ctx context.Context, rt *runtime, dir string, status io.Writer) error {
	d, err := rt.app.Download(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	path, err := d.SaveTo(dir)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(status, "Saved %s\n", path)
	return nil
}
