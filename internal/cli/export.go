package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/raphaelgruber/visadesk/internal/client"
	"github.com/raphaelgruber/visadesk/internal/parser"
	"github.com/spf13/cobra"
)

var (
	exportFormat  string
	exportOut     string
	exportOutline bool
	exportSection string
)

var exportFormats = []string{client.ExportMarkdown, client.ExportXMind, client.ExportDocx, client.ExportZip}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the project's documents",
	Long: `Download the generated documents of a project.

Markdown exports get a frontmatter block recording the project and export
time. Other formats are saved under the name the server suggests.

Examples:
  visadesk export -p p42
  visadesk export --format docx --out ./out
  visadesk export --format markdown --outline
  visadesk export --section "Awards"`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", client.ExportMarkdown, "markdown, xmind, docx or zip")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "output directory")
	exportCmd.Flags().BoolVar(&exportOutline, "outline", false, "print the heading outline of a markdown export")
	exportCmd.Flags().StringVar(&exportSection, "section", "", "print one section of a markdown export")
}

func runExport(cmd *cobra.Command, args []string) error {
	if !slices.Contains(exportFormats, exportFormat) {
		return fmt.Errorf("unknown format %q (use markdown, xmind, docx or zip)", exportFormat)
	}
	if (exportOutline || exportSection != "") && exportFormat != client.ExportMarkdown {
		return errors.New("--outline and --section need --format markdown")
	}
	projectID, err := currentProject()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(exportOut, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := apiClient.Export(commandContext(cmd), projectID, exportFormat)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer file.Close()

	path := filepath.Join(exportOut, file.Filename)
	if exportFormat == client.ExportMarkdown {
		return writeMarkdownExport(path, projectID, file.Markdown)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	n, err := io.Copy(out, file.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}

	logger.Info("export saved", "project_id", projectID, "format", exportFormat, "bytes", n)
	fmt.Printf("Saved %s (%s)\n", path, humanSize(n))
	return nil
}

func writeMarkdownExport(path, projectID, content string) error {
	doc, err := parser.ParseMarkdown(content)
	if err != nil {
		// Keep the export even if the server sent a frontmatter block we can't read.
		logger.Warn("export frontmatter unreadable", "error", err)
	}

	withMeta, err := parser.WithFrontmatter(map[string]any{
		"project_id":  projectID,
		"format":      client.ExportMarkdown,
		"exported_at": time.Now().UTC().Format(time.RFC3339),
	}, content)
	if err != nil {
		return fmt.Errorf("add frontmatter: %w", err)
	}

	if err := os.WriteFile(path, []byte(withMeta), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("Saved %s\n", path)

	if doc == nil {
		return nil
	}
	if exportOutline {
		fmt.Print(outlineText(doc))
	}
	if exportSection != "" {
		text, err := sectionText(doc, exportSection)
		if err != nil {
			return err
		}
		fmt.Print(text)
	}
	return nil
}

func outlineText(doc *parser.MarkdownDoc) string {
	var b strings.Builder
	if doc.Title != "" {
		fmt.Fprintf(&b, "\n%s\n", doc.Title)
	}
	b.WriteString(doc.Outline())
	return b.String()
}

// sectionText renders the section under heading, or an error listing what
// headings exist.
func sectionText(doc *parser.MarkdownDoc, heading string) (string, error) {
	sec, ok := doc.Section(heading)
	if !ok {
		headings := make([]string, 0, len(doc.Sections))
		for _, s := range doc.Sections {
			headings = append(headings, s.Heading)
		}
		return "", fmt.Errorf("section %q not found (have: %s)", heading, strings.Join(headings, ", "))
	}
	return fmt.Sprintf("\n%s\n\n%s\n", sec.Path, strings.TrimSpace(sec.Content)), nil
}
