package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/raphaelgruber/visadesk/internal/dialog"
	"github.com/raphaelgruber/visadesk/internal/listing"
	"github.com/raphaelgruber/visadesk/internal/models"
	"github.com/spf13/cobra"
)

var (
	bulletSearch  string
	bulletSection string

	bulletTitle   string
	bulletContent string
	bulletTags    []string
)

var bulletsCmd = &cobra.Command{
	Use:     "bullets",
	Aliases: []string{"kb"},
	Short:   "Browse and edit the knowledge base",
	Long: `Browse, add, edit and delete knowledge-base bullets reused across documents.

Examples:
  visadesk bullets --section criteria
  visadesk bullets show b12
  visadesk bullets add --title "Judging" --section criteria --content "..."
  visadesk bullets reset`,
	Args: cobra.NoArgs,
	RunE: runBulletsList,
}

var bulletsShowCmd = &cobra.Command{
	Use:   "show <bullet-id>",
	Short: "Show one bullet in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runBulletsShow,
}

var bulletsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a bullet",
	Args:  cobra.NoArgs,
	RunE:  runBulletsAdd,
}

var bulletsEditCmd = &cobra.Command{
	Use:   "edit <bullet-id>",
	Short: "Edit a bullet",
	Args:  cobra.ExactArgs(1),
	RunE:  runBulletsEdit,
}

var bulletsDeleteCmd = &cobra.Command{
	Use:   "delete <bullet-id>",
	Short: "Delete a bullet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := confirmer.Require(fmt.Sprintf("Delete bullet %s?", args[0])); err != nil {
			return cancelledOK(err)
		}
		if err := apiClient.DeleteBullet(commandContext(cmd), args[0]); err != nil {
			return fmt.Errorf("delete bullet: %w", err)
		}
		fmt.Printf("Deleted bullet %s\n", args[0])
		return nil
	},
}

var bulletsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the knowledge base to the server defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := confirmer.Require("Reset the knowledge base? All edits are lost."); err != nil {
			return cancelledOK(err)
		}
		if err := apiClient.ResetBullets(commandContext(cmd)); err != nil {
			return fmt.Errorf("reset knowledge base: %w", err)
		}
		fmt.Println("Knowledge base reset.")
		return nil
	},
}

func init() {
	bulletsCmd.Flags().StringVarP(&bulletSearch, "search", "s", "", "search title, content and tags")
	bulletsCmd.Flags().StringVar(&bulletSection, "section", "", "only bullets in this section")

	for _, c := range []*cobra.Command{bulletsAddCmd, bulletsEditCmd} {
		c.Flags().StringVar(&bulletTitle, "title", "", "bullet title")
		c.Flags().StringVar(&bulletContent, "content", "", "bullet text")
		c.Flags().StringVar(&bulletSection, "section", "", "section")
		c.Flags().StringSliceVar(&bulletTags, "tags", nil, "comma-separated tags")
	}

	bulletsCmd.AddCommand(bulletsShowCmd)
	bulletsCmd.AddCommand(bulletsAddCmd)
	bulletsCmd.AddCommand(bulletsEditCmd)
	bulletsCmd.AddCommand(bulletsDeleteCmd)
	bulletsCmd.AddCommand(bulletsResetCmd)
}

func runBulletsList(cmd *cobra.Command, args []string) error {
	bullets, err := apiClient.ListBullets(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("list bullets: %w", err)
	}
	bullets = listing.Filter(bullets, listing.Bullets, listing.Query{Search: bulletSearch, Category: bulletSection})

	if len(bullets) == 0 {
		fmt.Println("No bullets found.")
		return nil
	}

	fmt.Printf("Bullets (%d):\n\n", len(bullets))
	for _, b := range bullets {
		fmt.Printf("- %s %s [%s]\n", b.ID, b.Title, b.Section)
		if verbose {
			fmt.Printf("  %s\n", models.Truncate(models.OneLine(b.Content), 100))
			if len(b.Tags) > 0 {
				fmt.Printf("  Tags: %s\n", strings.Join(b.Tags, ", "))
			}
		}
	}
	return nil
}

func findBullet(cmd *cobra.Command, id string) (*models.Bullet, error) {
	bullets, err := apiClient.ListBullets(commandContext(cmd))
	if err != nil {
		return nil, fmt.Errorf("list bullets: %w", err)
	}
	idx := slices.IndexFunc(bullets, func(b models.Bullet) bool { return b.ID == id })
	if idx < 0 {
		return nil, fmt.Errorf("bullet not found: %s", id)
	}
	return &bullets[idx], nil
}

func runBulletsShow(cmd *cobra.Command, args []string) error {
	b, err := findBullet(cmd, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", b.Title)
	fmt.Printf("  ID:      %s\n", b.ID)
	fmt.Printf("  Section: %s\n", b.Section)
	if len(b.Tags) > 0 {
		fmt.Printf("  Tags:    %s\n", strings.Join(b.Tags, ", "))
	}
	fmt.Printf("  Updated: %s\n\n", b.UpdatedAt.Format("2006-01-02 15:04"))
	fmt.Println(b.Content)
	return nil
}

func runBulletsAdd(cmd *cobra.Command, args []string) error {
	in := models.BulletInput{
		Title:   strings.TrimSpace(bulletTitle),
		Content: bulletContent,
		Section: bulletSection,
		Tags:    bulletTags,
	}
	if in.Title == "" || strings.TrimSpace(in.Content) == "" {
		return errors.New("--title and --content are required")
	}

	b, err := apiClient.CreateBullet(commandContext(cmd), in)
	if err != nil {
		return fmt.Errorf("create bullet: %w", err)
	}
	fmt.Printf("Added bullet %s: %s\n", b.ID, b.Title)
	return nil
}

func runBulletsEdit(cmd *cobra.Command, args []string) error {
	b, err := findBullet(cmd, args[0])
	if err != nil {
		return err
	}

	var draft dialog.Draft[models.BulletInput]
	draft.Begin(models.BulletInput{Title: b.Title, Content: b.Content, Section: b.Section, Tags: b.Tags})
	draft.Edit(func(in *models.BulletInput) {
		flags := cmd.Flags()
		if flags.Changed("title") {
			in.Title = strings.TrimSpace(bulletTitle)
		}
		if flags.Changed("content") {
			in.Content = bulletContent
		}
		if flags.Changed("section") {
			in.Section = bulletSection
		}
		if flags.Changed("tags") {
			in.Tags = bulletTags
		}
	})

	err = draft.Commit(func(in models.BulletInput) error {
		_, err := apiClient.UpdateBullet(commandContext(cmd), b.ID, in)
		return err
	})
	if err != nil {
		return fmt.Errorf("update bullet: %w", err)
	}
	fmt.Printf("Updated bullet %s\n", b.ID)
	return nil
}
