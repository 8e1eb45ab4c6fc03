package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"framer/internal/processor"
)

// Model renders batch progress from a stream of processor updates. It quits
// when the channel is closed.
type Model struct {
	updates    <-chan processor.ProgressUpdate
	started    time.Time
	width      int
	total      int
	processed  int
	skipped    int
	failed     int
	bestEffort int
	written    int64
	current    string
	quitting   bool
}

type doneMsg struct{}

type updateMsg processor.ProgressUpdate

func NewModel(updates <-chan processor.ProgressUpdate) Model {
	return Model{updates: updates, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.total += msg.TotalDelta
		m.processed += msg.ProcessedDelta
		m.skipped += msg.SkippedDelta
		m.failed += msg.FailedDelta
		m.bestEffort += msg.BestEffortDelta
		m.written += msg.BytesDelta
		if msg.Name != "" {
			m.current = msg.Name
		}
		return m, listenForUpdates(m.updates)
	case doneMsg:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

// Done is the number of entries with a final outcome.
func (m Model) Done() int {
	return m.processed + m.skipped + m.failed
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = min(60, max(20, m.width-10))
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = min(1, float64(m.Done())/float64(m.total))
	}

	counts := SuccessStyle.Render(fmt.Sprintf("processed:%d", m.processed)) +
		DimStyle.Render(fmt.Sprintf("  skipped:%d", m.skipped))
	if m.failed > 0 {
		counts += ErrorStyle.Render(fmt.Sprintf("  failed:%d", m.failed))
	}
	if m.bestEffort > 0 {
		counts += WarnStyle.Render(fmt.Sprintf("  best-effort:%d", m.bestEffort))
	}

	lines := []string{
		TitleStyle.Render("framer"),
		LabelStyle.Render(fmt.Sprintf("Files: %d/%d  ", m.Done(), m.total)) + counts,
		LabelStyle.Render("Written: " + HumanBytes(m.written)),
		DimStyle.Render(fmt.Sprintf("Last: %s  Elapsed: %s", m.current, time.Since(m.started).Round(time.Millisecond))),
		barStyle.Render(renderBar(barWidth, ratio)),
	}

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := min(width, max(0, int(ratio*float64(width)+0.5)))
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

// HumanBytes formats n with a binary unit.
func HumanBytes(n int64) string {
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
