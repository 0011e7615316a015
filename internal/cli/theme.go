package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/visadesk/internal/models"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Accent  lipgloss.Color
}

var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Accent:  lipgloss.Color("#FFAF00"), // amber
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
}

// stageMark renders the status marker shown in the workflow strip.
func (t Theme) stageMark(status models.StageStatus) string {
	switch status {
	case models.StageCompleted:
		return t.completedStyle().Render("✓")
	case models.StageInProgress:
		return t.statusStyle().Render("●")
	default:
		return t.hintStyle().Render("○")
	}
}

// logMark renders the status marker of a job log entry.
func (t Theme) logMark(status models.LogStatus) string {
	switch status {
	case models.LogSuccess:
		return t.completedStyle().Render("✓")
	case models.LogError:
		return t.errorStyle().Render("✗")
	case models.LogProcessing:
		return t.statusStyle().Render("…")
	default:
		return t.hintStyle().Render("·")
	}
}
