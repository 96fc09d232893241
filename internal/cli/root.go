// Package cli implements the clarus command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/clarus/internal/config"
)

type VersionInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

var versionInfo = VersionInfo{Version: "dev", Commit: "none", BuildDate: "unknown"}

// SetVersionInfo is called from main with values stamped at build time.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo = VersionInfo{Version: version, Commit: commit, BuildDate: buildDate}
	rootCmd.Version = version
}

// cfg is loaded once per invocation by the root pre-run hook.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "clarus",
	Short: "Clarus IoT traffic analysis client",
	Long: `clarus talks to the Clarus scoring backend: sign in, manage the
subscription, upload CSV captures, follow scoring jobs and download the
scored results.

Configuration comes from CLARUS_* environment variables; flags override them.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "clarus %s (commit %s, built %s)\n",
			versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().String("api-url", "", "Backend base URL (overrides CLARUS_API_URL)")
	rootCmd.PersistentFlags().String("profile", "", "Session profile name (overrides CLARUS_PROFILE)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if v, _ := cmd.Flags().GetString("api-url"); v != "" {
		loaded.Backend.BaseURL = strings.TrimRight(v, "/")
	}
	if v, _ := cmd.Flags().GetString("profile"); v != "" {
		loaded.Session.Profile = v
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: loaded.Log.Level,
	})))
	cfg = loaded
	return nil
}
