package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/visadesk/internal/dialog"
	"github.com/raphaelgruber/visadesk/internal/listing"
	"github.com/raphaelgruber/visadesk/internal/models"
	"github.com/spf13/cobra"
)

var (
	projectSearch string
	projectStatus string

	projectClient string
	projectVisa   string
	projectNotes  string
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "List and manage projects",
	Long: `List, inspect, create, edit and delete visa copywriting projects.

Examples:
  visadesk projects
  visadesk projects --search li --status collecting
  visadesk projects show p42
  visadesk projects create --client "Li Wei" --visa EB-1A
  visadesk projects use p42`,
	Args: cobra.NoArgs,
	RunE: runProjectsList,
}

var projectsShowCmd = &cobra.Command{
	Use:   "show [project-id]",
	Short: "Show project details, material packages and history",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectsShow,
}

var projectsUseCmd = &cobra.Command{
	Use:   "use <project-id>",
	Short: "Select the project other commands default to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := apiClient.GetProject(commandContext(cmd), args[0])
		if err != nil {
			return fmt.Errorf("get project: %w", err)
		}
		if _, err := selectProject(project.ID); err != nil {
			return err
		}
		fmt.Printf("Selected %s (%s, %s)\n", project.ID, project.ClientName, project.VisaType)
		return nil
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	Args:  cobra.NoArgs,
	RunE:  runProjectsCreate,
}

var projectsEditCmd = &cobra.Command{
	Use:   "edit [project-id]",
	Short: "Edit a project's client name, visa type or notes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectsEdit,
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsDelete,
}

func init() {
	projectsCmd.Flags().StringVarP(&projectSearch, "search", "s", "", "search client name, visa type and id")
	projectsCmd.Flags().StringVar(&projectStatus, "status", "", "only projects in this status")

	for _, c := range []*cobra.Command{projectsCreateCmd, projectsEditCmd} {
		c.Flags().StringVar(&projectClient, "client", "", "client name")
		c.Flags().StringVar(&projectVisa, "visa", "", "visa type (EB-1A, NIW, O-1, ...)")
		c.Flags().StringVar(&projectNotes, "notes", "", "free-form notes")
	}

	projectsCmd.AddCommand(projectsShowCmd)
	projectsCmd.AddCommand(projectsUseCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(projectsEditCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	if projectStatus != "" && !models.ProjectStatus(projectStatus).Valid() {
		return fmt.Errorf("unknown status %q", projectStatus)
	}

	projects, err := apiClient.ListProjects(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	projects = listing.Filter(projects, listing.Projects, listing.Query{Search: projectSearch, Category: projectStatus})

	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return nil
	}

	fmt.Printf("%-3s %-12s %-20s %-8s %-20s %s\n", "", "ID", "CLIENT", "VISA", "STATUS", "UPDATED")
	fmt.Println(strings.Repeat("-", 80))
	for _, p := range projects {
		marker := ""
		if p.ID == sess.LastProjectID {
			marker = "*"
		}
		fmt.Printf("%-3s %-12s %-20s %-8s %-20s %s\n",
			marker, p.ID, models.Truncate(p.ClientName, 20), p.VisaType, p.Status, p.UpdatedAt.Format("2006-01-02"))
	}
	return nil
}

func runProjectsShow(cmd *cobra.Command, args []string) error {
	id, err := selectProject(firstArg(args))
	if err != nil {
		return err
	}
	project, err := apiClient.GetProject(commandContext(cmd), id)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}

	fmt.Printf("Project: %s\n", project.ID)
	fmt.Printf("  Client: %s\n", project.ClientName)
	fmt.Printf("  Visa:   %s\n", project.VisaType)
	fmt.Printf("  Status: %s\n", project.Status)
	if project.Notes != "" {
		fmt.Printf("  Notes:  %s\n", models.OneLine(project.Notes))
	}
	fmt.Printf("  Created: %s\n", project.CreatedAt.Format(time.RFC3339))

	if len(project.MaterialPackages) > 0 {
		fmt.Println("\nMaterial packages:")
		for id, pkg := range project.MaterialPackages {
			fmt.Printf("  %-16s %-24s %d/%d\n", id, pkg.Name, pkg.Collected, pkg.Total)
		}
	}

	if len(project.WorkflowHistory) > 0 {
		fmt.Println("\nHistory:")
		for _, h := range project.WorkflowHistory {
			line := fmt.Sprintf("  %s  %s", h.Timestamp.Local().Format("2006-01-02 15:04"), h.Action)
			if h.Details != "" {
				line += " - " + models.Truncate(models.OneLine(h.Details), 60)
			}
			fmt.Println(line)
		}
	}
	return nil
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	var draft dialog.Draft[models.ProjectInput]
	draft.Begin(models.ProjectInput{})
	draft.Edit(func(in *models.ProjectInput) {
		in.ClientName = strings.TrimSpace(projectClient)
		in.VisaType = strings.TrimSpace(projectVisa)
		in.Notes = projectNotes
	})
	if draft.Value().ClientName == "" || draft.Value().VisaType == "" {
		draft.Cancel()
		return errors.New("--client and --visa are required")
	}

	var created *models.Project
	err := draft.Commit(func(in models.ProjectInput) error {
		p, err := apiClient.CreateProject(commandContext(cmd), in)
		created = p
		return err
	})
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	if _, err := selectProject(created.ID); err != nil {
		return err
	}
	fmt.Printf("Created project %s for %s (%s)\n", created.ID, created.ClientName, created.VisaType)
	return nil
}

func runProjectsEdit(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	id, err := selectProject(firstArg(args))
	if err != nil {
		return err
	}
	project, err := apiClient.GetProject(ctx, id)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}

	var draft dialog.Draft[models.ProjectInput]
	draft.Begin(models.ProjectInput{ClientName: project.ClientName, VisaType: project.VisaType, Notes: project.Notes})
	draft.Edit(func(in *models.ProjectInput) {
		if cmd.Flags().Changed("client") {
			in.ClientName = strings.TrimSpace(projectClient)
		}
		if cmd.Flags().Changed("visa") {
			in.VisaType = strings.TrimSpace(projectVisa)
		}
		if cmd.Flags().Changed("notes") {
			in.Notes = projectNotes
		}
	})
	if draft.Value() == draft.Original() {
		draft.Cancel()
		fmt.Println("Nothing to change.")
		return nil
	}

	err = draft.Commit(func(in models.ProjectInput) error {
		_, err := apiClient.UpdateProject(ctx, id, in)
		return err
	})
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	fmt.Printf("Updated project %s\n", id)
	return nil
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	project, err := apiClient.GetProject(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}

	fmt.Printf("About to delete: %s (%s, %s)\n", project.ID, project.ClientName, project.VisaType)
	if err := confirmer.Require("Continue?"); err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			fmt.Println("Cancelled.")
			return nil
		}
		return err
	}

	if err := apiClient.DeleteProject(ctx, project.ID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if sess.LastProjectID == project.ID {
		sess.LastProjectID = ""
		if err := sess.Save(); err != nil {
			logger.Warn("could not clear selected project", "error", err)
		}
	}
	fmt.Printf("Deleted: %s\n", project.ID)
	return nil
}

func firstArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return projectFlag
}
