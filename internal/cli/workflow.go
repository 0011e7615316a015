package cli

import (
	"fmt"

	"charm.land/bubbles/v2/progress"
	"github.com/raphaelgruber/visadesk/internal/workflow"
	"github.com/spf13/cobra"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Show and advance the project workflow",
	Long: `Show the project's workflow stages as reported by the server, or run a stage.

Stages, in order: collect, analyze, framework, generate, optimize, review.
"collect" and "framework" are handled by the materials and framework commands.

Examples:
  visadesk workflow -p p42
  visadesk workflow run generate`,
	Args: cobra.NoArgs,
	RunE: runWorkflowStatus,
}

var workflowRunCmd = &cobra.Command{
	Use:       "run <stage>",
	Short:     "Trigger a workflow stage",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"collect", "analyze", "framework", "generate", "optimize", "review"},
	RunE:      runWorkflowStage,
}

func init() {
	workflowCmd.AddCommand(workflowRunCmd)
}

func loadTracker(cmd *cobra.Command) (*workflow.Tracker, error) {
	projectID, err := currentProject()
	if err != nil {
		return nil, err
	}
	return workflow.NewTracker(apiClient, projectID, logger), nil
}

func printStages(tr *workflow.Tracker) {
	theme := defaultTheme
	bar := progress.New(progress.WithDefaultBlend(), progress.WithWidth(30))

	if p := tr.Project(); p != nil {
		fmt.Printf("%s (%s) - %s\n", p.ClientName, p.VisaType, theme.statusStyle().Render(string(p.Status)))
	}
	fmt.Printf("%s %3.0f%%\n\n", bar.ViewAs(tr.Percent()), tr.Percent()*100)

	for i, s := range tr.Stages() {
		line := fmt.Sprintf("%d. %s %-20s %s", i+1, theme.stageMark(s.Status), s.Name, s.Status)
		if s.Message != "" {
			line += "  " + theme.hintStyle().Render(s.Message)
		}
		fmt.Println(line)
	}

	if verbose {
		fmt.Printf("\nDocuments: %d   Raw materials: %d\n", len(tr.Documents()), len(tr.RawMaterials()))
		for _, d := range tr.Documents() {
			fmt.Printf("  %-12s %-32s v%d\n", d.ID, d.Title, d.Version)
		}
	}
}

func runWorkflowStatus(cmd *cobra.Command, args []string) error {
	tr, err := loadTracker(cmd)
	if err != nil {
		return err
	}
	if err := tr.Refresh(commandContext(cmd)); err != nil {
		return err
	}
	printStages(tr)
	return nil
}

func runWorkflowStage(cmd *cobra.Command, args []string) error {
	tr, err := loadTracker(cmd)
	if err != nil {
		return err
	}

	out, err := tr.Trigger(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	switch out.Navigate {
	case workflow.NavMaterials:
		fmt.Println("Materials are collected with 'visadesk materials upload' and 'visadesk materials batch'.")
		return nil
	case workflow.NavFramework:
		fmt.Println("Build the framework with 'visadesk framework build'.")
		return nil
	}

	fmt.Printf("%s started.\n\n", out.Stage.Name)
	printStages(tr)
	return nil
}
