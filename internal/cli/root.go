// Package cli provides the command-line interface for visadesk.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/visadesk/internal/client"
	"github.com/raphaelgruber/visadesk/internal/config"
	"github.com/raphaelgruber/visadesk/internal/dialog"
	"github.com/raphaelgruber/visadesk/internal/metrics"
	"github.com/raphaelgruber/visadesk/internal/session"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose     bool
	force       bool
	serverURL   string
	projectFlag string

	// Process-wide state, set up once in PersistentPreRunE
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	sess       *session.Session
	apiClient  *client.Client
	collector  *metrics.Collector
	confirmer  *dialog.Confirmer
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "visadesk",
	Short: "Terminal desk for visa copywriting projects",
	Long: `Visadesk manages visa-application copywriting projects against the
copywriting backend: collect and classify client materials, build the
document framework while watching the AI log, run workflow stages, and
administer users and the knowledge base.

Configuration comes from VISADESK_* environment variables or a .env file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}
		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level)
		slog.SetDefault(logger)

		var err error
		sess, err = session.Load(cfg.SessionFile)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}

		collector = metrics.NewCollector()
		apiClient = client.New(client.Options{
			BaseURL:   cfg.ServerURL,
			Token:     sess.Token,
			Timeout:   cfg.ClientTimeout,
			Logger:    logger,
			Collector: collector,
		})
		confirmer = &dialog.Confirmer{In: os.Stdin, Out: os.Stdout, Force: force}

		logger.Debug("visadesk started", "server", cfg.ServerURL, "command", cmd.CommandPath())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if verbose && collector != nil {
			printCallStats(collector.Snapshot())
		}
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which commands use for every
// backend call.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and call statistics")
	rootCmd.PersistentFlags().BoolVarP(&force, "yes", "y", false, "answer yes to confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "backend URL (overrides VISADESK_SERVER_URL)")
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "project id (defaults to the last selected project)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(materialsCmd)
	rootCmd.AddCommand(frameworkCmd)
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(bulletsCmd)
}

// currentProject resolves the project from --project or the last selected
// project, and remembers it for the next command.
func currentProject() (string, error) {
	return selectProject(projectFlag)
}

// selectProject falls back to the last selected project when id is empty.
func selectProject(id string) (string, error) {
	if id == "" {
		id = sess.LastProjectID
	}
	if id == "" {
		return "", fmt.Errorf("no project given and none selected; run 'visadesk projects use <id>'")
	}
	if id != sess.LastProjectID {
		sess.LastProjectID = id
		if err := sess.Save(); err != nil {
			logger.Warn("could not remember project", "error", err)
		}
	}
	return id, nil
}

func printCallStats(snap metrics.Snapshot) {
	if len(snap.Operations) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\nBackend calls (%.1fs):\n", snap.UptimeSeconds)
	for _, op := range snap.Operations {
		fmt.Fprintf(os.Stderr, "  %-22s %3d calls  %2d failed  avg %6.0fms  max %5dms\n",
			op.Operation, op.Count, op.Failures, op.AvgTimeMs, op.MaxTimeMs)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
