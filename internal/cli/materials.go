package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/raphaelgruber/visadesk/internal/client"
	"github.com/raphaelgruber/visadesk/internal/materials"
	"github.com/raphaelgruber/visadesk/internal/models"
	"github.com/spf13/cobra"
)

var (
	uploadCategory    string
	uploadItem        string
	uploadDescription string
	uploadURLs        []string
	uploadText        string
	uploadTitle       string
)

var materialsCmd = &cobra.Command{
	Use:     "materials",
	Aliases: []string{"mat"},
	Short:   "Collect, classify and delete project materials",
	Long: `Show the material checklist of a project and manage its uploaded files.

Every file sits in exactly one checklist slot. Files that match no slot go
to "other documents" (folder_1/other_docs).

Examples:
  visadesk materials -p p42
  visadesk materials upload passport.pdf --category folder_1 --item passport
  visadesk materials batch ~/Downloads/li-wei/*.pdf bundle.zip
  visadesk materials tag 118 folder_2 transcript
  visadesk materials delete-all`,
	Args: cobra.NoArgs,
	RunE: runMaterialsList,
}

var materialsUploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload files, URLs or pasted text into one checklist slot",
	RunE:  runMaterialsUpload,
}

var materialsBatchCmd = &cobra.Command{
	Use:   "batch [file...]",
	Short: "Upload a mixed selection; archives are expanded and classified by the server",
	RunE:  runMaterialsBatch,
}

var materialsTagCmd = &cobra.Command{
	Use:   "tag <file-id> <category-id> <item-id>",
	Short: "Move a file into a checklist slot",
	Args:  cobra.ExactArgs(3),
	RunE:  runMaterialsTag,
}

var materialsUntagCmd = &cobra.Command{
	Use:   "untag <file-id>",
	Short: "Move a file back to other documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runMaterialsUntag,
}

var materialsGuessCmd = &cobra.Command{
	Use:   "guess <file-name...>",
	Short: "Show which slot a batch upload would pick for each name",
	Args:  cobra.MinimumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range args {
			if materials.IsArchive(name) {
				fmt.Printf("%-40s archive (classified by the server)\n", name)
				continue
			}
			tag, ok := materials.GuessFileCategory(name)
			if !ok {
				fmt.Printf("%-40s %s (no match)\n", name, models.SentinelTag)
				continue
			}
			fmt.Printf("%-40s %s\n", name, tag)
		}
	},
}

var materialsDeleteCmd = &cobra.Command{
	Use:   "delete <file-id>",
	Short: "Delete one uploaded file",
	Args:  cobra.ExactArgs(1),
	RunE:  runMaterialsDelete,
}

var materialsDeleteAllCmd = &cobra.Command{
	Use:   "delete-all",
	Short: "Delete every uploaded file of the project",
	Args:  cobra.NoArgs,
	RunE:  runMaterialsDeleteAll,
}

func init() {
	for _, c := range []*cobra.Command{materialsUploadCmd, materialsBatchCmd} {
		c.Flags().StringSliceVar(&uploadURLs, "url", nil, "download and upload these URLs")
		c.Flags().StringVar(&uploadText, "text", "", "upload pasted text as a .txt file")
		c.Flags().StringVar(&uploadTitle, "title", "", "file name for --text")
	}
	materialsUploadCmd.Flags().StringVar(&uploadCategory, "category", models.SentinelTag.CategoryID, "category id")
	materialsUploadCmd.Flags().StringVar(&uploadItem, "item", models.SentinelTag.ItemID, "checklist item id")
	materialsUploadCmd.Flags().StringVar(&uploadDescription, "description", "", "description stored with the file")

	materialsCmd.AddCommand(materialsUploadCmd)
	materialsCmd.AddCommand(materialsBatchCmd)
	materialsCmd.AddCommand(materialsTagCmd)
	materialsCmd.AddCommand(materialsUntagCmd)
	materialsCmd.AddCommand(materialsGuessCmd)
	materialsCmd.AddCommand(materialsDeleteCmd)
	materialsCmd.AddCommand(materialsDeleteAllCmd)
}

// loadMaterials creates a manager for the current project and loads its state.
func loadMaterials(cmd *cobra.Command) (*materials.Manager, error) {
	projectID, err := currentProject()
	if err != nil {
		return nil, err
	}
	m := materials.NewManager(apiClient, projectID, logger)
	if err := m.Refresh(commandContext(cmd)); err != nil {
		return nil, err
	}
	return m, nil
}

func runMaterialsList(cmd *cobra.Command, args []string) error {
	m, err := loadMaterials(cmd)
	if err != nil {
		return err
	}
	theme := defaultTheme

	for _, cat := range m.Categories() {
		repeat := ""
		if cat.IsRepeatable {
			repeat = " (repeatable)"
		}
		fmt.Printf("%s %s%s\n", cat.ID, cat.Name, repeat)
		for _, item := range cat.Items {
			mark := theme.hintStyle().Render("○")
			if item.Status == models.ItemCollected {
				mark = theme.completedStyle().Render("✓")
			}
			required := ""
			if item.Required {
				required = theme.errorStyle().Render(" *")
			}
			fmt.Printf("  %s %-28s %s%s\n", mark, item.ID, item.Name, required)
			for _, f := range item.Files {
				fmt.Printf("      #%d %s\n", f.ID, f.FileName)
			}
		}
	}

	files := m.Files()
	if len(files) == 0 {
		fmt.Println("\nNo files uploaded.")
		return nil
	}
	if verbose {
		fmt.Printf("\nFiles (%d):\n", len(files))
		for _, f := range files {
			fmt.Printf("  #%-6d %-40s %-24s %8s  %s\n",
				f.ID, models.Truncate(f.FileName, 40), m.Tag(f.ID), humanSize(f.FileSize), f.UploadedAt.Format("2006-01-02"))
		}
	}
	return nil
}

func uploadSources(args []string) []materials.Source {
	var sources []materials.Source
	for _, path := range args {
		sources = append(sources, materials.FileSource{Path: path})
	}
	for _, u := range uploadURLs {
		sources = append(sources, materials.URLSource{URL: u})
	}
	if uploadText != "" {
		sources = append(sources, materials.TextSource{Title: uploadTitle, Text: uploadText})
	}
	return sources
}

// printProgress reports each row once it settles.
func printProgress(rows []materials.UploadProgress) {
	theme := defaultTheme
	for _, r := range rows {
		switch r.Status {
		case materials.UploadSuccess:
			if r.Archive != nil {
				fmt.Printf("%s %s: %d files, %d classified, %d unrecognized\n",
					theme.completedStyle().Render("✓"), r.Name, r.Archive.TotalFiles, r.Archive.SuccessCount, r.Archive.UnrecognizedCount)
				for _, f := range r.Archive.Files {
					switch f.Status {
					case models.ZipFileSuccess:
						fmt.Printf("    ✓ %-36s %s/%s %s\n", f.Filename, f.CategoryID, f.ItemID, f.CategoryName)
					case models.ZipFileUnrecognized:
						fmt.Printf("    ? %-36s unrecognized\n", f.Filename)
					default:
						fmt.Printf("    ✗ %-36s %s\n", f.Filename, f.Message)
					}
				}
				continue
			}
			fmt.Printf("%s %s → %s\n", theme.completedStyle().Render("✓"), r.Name, r.Tag)
		case materials.UploadError:
			fmt.Printf("%s %s: %v\n", theme.errorStyle().Render("✗"), r.Name, r.Err)
		}
	}
}

func watchProgress(m *materials.Manager) {
	m.OnProgress = func(rows []materials.UploadProgress) {
		if verbose && len(rows) > 0 && rows[len(rows)-1].Status == materials.UploadUploading {
			fmt.Printf("  uploading %s...\n", rows[len(rows)-1].Name)
		}
	}
}

func runMaterialsUpload(cmd *cobra.Command, args []string) error {
	sources := uploadSources(args)
	if len(sources) == 0 {
		return errors.New("nothing to upload; pass files, --url or --text")
	}
	m, err := loadMaterials(cmd)
	if err != nil {
		return err
	}
	watchProgress(m)

	meta := client.UploadMeta{CategoryID: uploadCategory, ItemID: uploadItem, Description: uploadDescription}
	results, err := m.Upload(commandContext(cmd), sources, meta)
	printProgress(results)
	return err
}

func runMaterialsBatch(cmd *cobra.Command, args []string) error {
	sources := uploadSources(args)
	if len(sources) == 0 {
		return errors.New("nothing to upload; pass files, --url or --text")
	}
	m, err := loadMaterials(cmd)
	if err != nil {
		return err
	}
	watchProgress(m)

	results, err := m.UploadBatch(commandContext(cmd), sources)
	printProgress(results)
	return err
}

func parseFileID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid file id %q", s)
	}
	return id, nil
}

func runMaterialsTag(cmd *cobra.Command, args []string) error {
	fileID, err := parseFileID(args[0])
	if err != nil {
		return err
	}
	m, err := loadMaterials(cmd)
	if err != nil {
		return err
	}

	tag := models.FileTag{CategoryID: args[1], ItemID: args[2]}
	if err := m.UpdateTag(commandContext(cmd), fileID, tag); err != nil {
		return err
	}
	fmt.Printf("File #%d → %s\n", fileID, m.Tag(fileID))
	return nil
}

func runMaterialsUntag(cmd *cobra.Command, args []string) error {
	fileID, err := parseFileID(args[0])
	if err != nil {
		return err
	}
	m, err := loadMaterials(cmd)
	if err != nil {
		return err
	}

	current := m.Tag(fileID)
	if err := m.RemoveTag(commandContext(cmd), fileID, current.CategoryID, current.ItemID); err != nil {
		return err
	}
	fmt.Printf("File #%d moved from %s to %s\n", fileID, current, m.Tag(fileID))
	return nil
}

func runMaterialsDelete(cmd *cobra.Command, args []string) error {
	fileID, err := parseFileID(args[0])
	if err != nil {
		return err
	}
	if err := confirmer.Require(fmt.Sprintf("Delete file #%d?", fileID)); err != nil {
		return cancelledOK(err)
	}
	m, err := loadMaterials(cmd)
	if err != nil {
		return err
	}
	if err := m.DeleteFile(commandContext(cmd), fileID); err != nil {
		return err
	}
	fmt.Printf("Deleted file #%d\n", fileID)
	return nil
}

func runMaterialsDeleteAll(cmd *cobra.Command, args []string) error {
	m, err := loadMaterials(cmd)
	if err != nil {
		return err
	}
	files := m.Files()
	if len(files) == 0 {
		fmt.Println("No files to delete.")
		return nil
	}
	if err := confirmer.Require(fmt.Sprintf("Delete all %d files?", len(files))); err != nil {
		return cancelledOK(err)
	}

	outcomes, err := m.DeleteAll(commandContext(cmd))
	theme := defaultTheme
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Printf("%s #%d %s: %v\n", theme.errorStyle().Render("✗"), o.File.ID, o.File.FileName, o.Err)
			continue
		}
		fmt.Printf("%s #%d %s\n", theme.completedStyle().Render("✓"), o.File.ID, o.File.FileName)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d files.\n", len(outcomes))
	return nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
