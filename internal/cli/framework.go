package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/raphaelgruber/visadesk/internal/config"
	"github.com/raphaelgruber/visadesk/internal/models"
	"github.com/raphaelgruber/visadesk/internal/poller"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	logsFollow bool
	buildPlain bool
)

var frameworkCmd = &cobra.Command{
	Use:   "framework",
	Short: "Build the document framework and inspect its AI log",
	Long: `Build the document framework for a project and watch each AI step as it
is logged, or inspect the log of a previous build.

Examples:
  visadesk framework build -p p42
  visadesk framework logs
  visadesk framework logs --follow`,
}

var frameworkBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the framework build and watch its log",
	Long: `Start the framework build and poll its log until the build finishes.

Closing the log view (q or Ctrl+C) stops watching but does not cancel the
build; it keeps running on the server.`,
	Args: cobra.NoArgs,
	RunE: runFrameworkBuild,
}

var frameworkLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the framework build log",
	Args:  cobra.NoArgs,
	RunE:  runFrameworkLogs,
}

func init() {
	frameworkBuildCmd.Flags().BoolVar(&buildPlain, "plain", false, "print log lines instead of the interactive view")
	frameworkLogsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "keep printing new entries")

	frameworkCmd.AddCommand(frameworkBuildCmd)
	frameworkCmd.AddCommand(frameworkLogsCmd)
}

func runFrameworkBuild(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	projectID, err := currentProject()
	if err != nil {
		return err
	}

	fetch := func(ctx context.Context) ([]models.LogEntry, error) {
		return apiClient.FrameworkLogs(ctx, projectID)
	}
	var framework *models.Framework
	job := func(ctx context.Context) error {
		fw, err := apiClient.BuildFramework(ctx, projectID)
		framework = fw
		return err
	}

	logger.Info("framework build started", "project_id", projectID)

	if !buildPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		finished, err := runLogViewer(ctx, "Framework build "+projectID, fetch, job)
		return reportBuild(finished, err, func() { printFrameworkResult(framework) })
	}

	printer := newLogPrinter()
	p := poller.New(fetch, poller.Options{
		Interval: cfg.PollInterval,
		Logger:   logger,
		OnChange: printer.snapshot,
	})
	if err := p.Run(ctx, job); err != nil {
		return fmt.Errorf("build framework: %w", err)
	}
	printFrameworkResult(framework)
	return nil
}

// reportBuild turns the log viewer outcome into the command result. A viewer
// that failed to run is an error even though the build was not seen to finish.
func reportBuild(finished bool, err error, printResult func()) error {
	switch {
	case !finished && err != nil:
		return err
	case !finished:
		fmt.Println(defaultTheme.hintStyle().Render(
			"The build continues on the server. Use 'visadesk framework logs --follow' to keep watching."))
		return nil
	case err != nil:
		return fmt.Errorf("build framework: %w", err)
	}
	printResult()
	return nil
}

func printFrameworkResult(fw *models.Framework) {
	fmt.Println(defaultTheme.completedStyle().Render("✓ Framework built"))
	if fw == nil {
		return
	}
	fmt.Printf("  Version: %d\n", fw.Version)
	if len(fw.Outline) > 0 {
		fmt.Printf("  Sections: %d\n", len(fw.Outline))
	}
}

func runFrameworkLogs(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	projectID, err := currentProject()
	if err != nil {
		return err
	}
	printer := newLogPrinter()

	if !logsFollow {
		entries, err := apiClient.FrameworkLogs(ctx, projectID)
		if err != nil {
			return fmt.Errorf("get framework logs: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No log entries.")
			return nil
		}
		for _, e := range entries {
			printer.entry(e)
		}
		return nil
	}

	if cfg.LogTransport == config.TransportWebSocket {
		err := apiClient.StreamFrameworkLogs(ctx, projectID, func(e models.LogEntry) error {
			printer.entry(e)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	// Follow by polling until interrupted; there is no job to wait for here.
	p := poller.New(func(ctx context.Context) ([]models.LogEntry, error) {
		return apiClient.FrameworkLogs(ctx, projectID)
	}, poller.Options{Interval: cfg.PollInterval, Logger: logger, OnChange: printer.snapshot})

	entries, err := apiClient.FrameworkLogs(ctx, projectID)
	if err != nil {
		return fmt.Errorf("get framework logs: %w", err)
	}
	for _, e := range entries {
		printer.entry(e)
	}

	p.Start(ctx)
	<-ctx.Done()
	p.Close()
	return nil
}
