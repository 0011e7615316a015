package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/visadesk/internal/dialog"
	"github.com/raphaelgruber/visadesk/internal/models"
	"github.com/raphaelgruber/visadesk/internal/poller"
)

// tickMsg refreshes the elapsed-time display.
type tickMsg time.Time

// snapshotMsg carries poller state into the UI.
type snapshotMsg poller.Snapshot

// jobDoneMsg reports that the job request resolved.
type jobDoneMsg struct {
	err error
}

// logViewModel is the live log dialog for a running job.
type logViewModel struct {
	title   string
	poller  *poller.Poller
	snap    poller.Snapshot
	cursor  int
	banner  *dialog.Banner // fetch errors; clears after its TTL or on the next key
	theme   Theme
	started time.Time
	done    bool
	closed  bool // user left before the job finished
	err     error
}

func newLogViewModel(title string, p *poller.Poller) logViewModel {
	return logViewModel{
		title:   title,
		poller:  p,
		banner:  &dialog.Banner{TTL: dialog.DefaultBannerTTL},
		theme:   defaultTheme,
		started: time.Now(),
	}
}

func (m logViewModel) Init() tea.Cmd {
	return tickCmd()
}

func (m logViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		m.banner.Reset()
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.closed = !m.done
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.snap.Entries)-1 {
				m.cursor++
			}
		case "enter", "space", " ":
			if m.cursor < len(m.snap.Entries) {
				id := m.snap.Entries[m.cursor].ID
				if id == m.snap.Expanded {
					id = 0
				}
				return m, m.expand(id)
			}
		}

	case snapshotMsg:
		prevExpanded := m.snap.Expanded
		prevErr := m.snap.FetchErr
		m.snap = poller.Snapshot(msg)
		if m.snap.FetchErr != nil && !errors.Is(m.snap.FetchErr, prevErr) {
			m.banner.Show(fmt.Errorf("log fetch failed: %w", m.snap.FetchErr))
		}
		// Follow the auto-expanded latest entry.
		if m.snap.Expanded != prevExpanded {
			for i, e := range m.snap.Entries {
				if e.ID == m.snap.Expanded {
					m.cursor = i
				}
			}
		}
		if m.cursor >= len(m.snap.Entries) {
			m.cursor = max(0, len(m.snap.Entries)-1)
		}

	case jobDoneMsg:
		m.done = true
		m.err = msg.err

	case tickMsg:
		// Keep redrawing while a banner may still need to clear.
		if !m.done || m.banner.Message() != "" {
			return m, tickCmd()
		}
	}

	return m, nil
}

// expand runs outside the update loop: the poller notifies the program
// synchronously and would otherwise block on it.
func (m logViewModel) expand(id int64) tea.Cmd {
	p := m.poller
	return func() tea.Msg {
		p.Expand(id)
		return nil
	}
}

func (m logViewModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m logViewModel) renderContent() string {
	var b strings.Builder

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.snap.Job))
	elapsed := time.Since(m.started).Round(time.Second)
	fmt.Fprintf(&b, "%s %s %s  %d steps\n\n", m.title, status, elapsed, len(m.snap.Entries))

	if len(m.snap.Entries) == 0 {
		b.WriteString(m.theme.hintStyle().Render("Waiting for the first log entry...") + "\n")
	}

	for i, e := range m.snap.Entries {
		line := fmt.Sprintf("%s #%-4d %-32s %s", m.theme.logMark(e.Status), e.ID, models.Truncate(e.ActionLabel, 32), e.CreatedAt.Local().Format("15:04:05"))
		if i == m.cursor {
			line = m.theme.selectedStyle().Render("› ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
		if e.ID == m.snap.Expanded {
			b.WriteString(renderEntryDetail(e, m.theme))
		}
	}

	if msg := m.banner.Message(); msg != "" {
		b.WriteString("\n" + m.theme.errorStyle().Render(msg) + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.done && m.err != nil:
		b.WriteString(m.theme.errorStyle().Render("✗ Job failed: "+m.err.Error()) + "\n")
	case m.done:
		b.WriteString(m.theme.completedStyle().Render("✓ Completed") + "\n")
	}
	hint := "↑/↓ select · enter expand · q close"
	if !m.done {
		hint += " (the job keeps running on the server)"
	}
	b.WriteString(m.theme.hintStyle().Render(hint) + "\n")
	return b.String()
}

func renderEntryDetail(e models.LogEntry, theme Theme) string {
	var b strings.Builder
	indent := "      "
	if e.PromptName != "" {
		prompt := e.PromptName
		if e.PromptVersion != "" {
			prompt += " v" + e.PromptVersion
		}
		b.WriteString(indent + theme.hintStyle().Render("prompt: "+prompt) + "\n")
	}
	if e.PromptText != "" {
		b.WriteString(indent + "→ " + models.Truncate(models.OneLine(e.PromptText), 300) + "\n")
	}
	if e.ResponseText != "" {
		b.WriteString(indent + "← " + models.Truncate(models.OneLine(e.ResponseText), 600) + "\n")
	}
	if e.ErrorMessage != "" {
		b.WriteString(indent + theme.errorStyle().Render(e.ErrorMessage) + "\n")
	}
	return b.String()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runLogViewer runs job under a poller and shows its log until the user
// closes the dialog. Closing early stops polling only; the backend job keeps
// running. It reports whether the job finished and, if so, its error.
func runLogViewer(ctx context.Context, title string, fetch poller.FetchFunc, job poller.JobFunc) (bool, error) {
	var prog *tea.Program
	p := poller.New(fetch, poller.Options{
		Interval: cfg.PollInterval,
		Logger:   logger,
		OnChange: func(s poller.Snapshot) {
			prog.Send(snapshotMsg(s))
		},
	})
	prog = tea.NewProgram(newLogViewModel(title, p))

	go func() {
		err := p.Run(ctx, job)
		prog.Send(jobDoneMsg{err: err})
	}()

	finalModel, err := prog.Run()
	p.Close()
	if err != nil {
		return false, fmt.Errorf("log viewer error: %w", err)
	}

	m, ok := finalModel.(logViewModel)
	if !ok || m.closed {
		return false, nil
	}
	return true, m.err
}

// logPrinter writes each log entry once, for non-interactive output.
type logPrinter struct {
	mu    sync.Mutex
	seen  map[int64]bool
	theme Theme
}

func newLogPrinter() *logPrinter {
	return &logPrinter{seen: make(map[int64]bool), theme: defaultTheme}
}

func (lp *logPrinter) snapshot(s poller.Snapshot) {
	for _, e := range s.Entries {
		lp.entry(e)
	}
}

func (lp *logPrinter) entry(e models.LogEntry) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	if lp.seen[e.ID] {
		return
	}
	lp.seen[e.ID] = true

	fmt.Printf("%s #%-4d %s  %-10s %s\n",
		e.CreatedAt.Local().Format("15:04:05"), e.ID, lp.theme.logMark(e.Status), e.Status, e.ActionLabel)
	if verbose && e.ResponseText != "" {
		fmt.Printf("        %s\n", models.Truncate(models.OneLine(e.ResponseText), 200))
	}
	if e.ErrorMessage != "" {
		fmt.Printf("        error: %s\n", e.ErrorMessage)
	}
}
