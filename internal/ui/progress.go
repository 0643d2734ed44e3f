// Package ui renders patcher progress in the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"dslgen/internal/patch"
)

type progressModel struct {
	title   string
	events  <-chan patch.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	changed int
	failed  int
	width   int
	done    bool
}

type fileItem struct {
	path    string
	status  patch.Status
	changed bool
}

type eventMsg patch.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model listing files with their
// patch status. The model quits once events is closed.
func NewProgressModel(title string, files []string, events <-chan patch.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: patch.StatusQueued})
		index[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(patch.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

// maxRows bounds the file list; finished files scroll out first.
const maxRows = 12

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	statusStyles = map[string]lipgloss.Style{
		string(patch.StatusDone):    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		string(patch.StatusError):   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		string(patch.StatusWorking): lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		"unchanged":                 lipgloss.NewStyle().Faint(true),
	}
	plainStyle = lipgloss.NewStyle()
)

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	lead := m.spinner.View()
	if m.done {
		lead = "done:"
	}
	header := fmt.Sprintf("%s %s (%d changed", lead, m.title, m.changed)
	if m.failed > 0 {
		header += fmt.Sprintf(", %d failed", m.failed)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header+")") + "\n\n")
	nameWidth := max(m.width-14, 20)
	rows, hidden := m.visibleRows()
	for _, item := range rows {
		label := item.label()
		style, ok := statusStyles[label]
		if !ok {
			style = plainStyle
		}
		fmt.Fprintf(&b, "  %s %s\n", style.Render(fmt.Sprintf("%10s", label)), truncate(item.path, nameWidth))
	}
	if hidden > 0 {
		fmt.Fprintf(&b, "  %10s %d more finished\n", "", hidden)
	}

	bar := m.prog.View()
	if m.done {
		bar = m.prog.ViewAs(1.0)
	}
	b.WriteString("\n" + bar + "\n")
	return b.String()
}

func (it fileItem) label() string {
	if it.status == patch.StatusDone && !it.changed {
		return "unchanged"
	}
	return string(it.status)
}

// visibleRows keeps pending and failed files and as many finished ones as
// fit in maxRows; it returns how many finished files were left out.
func (m *progressModel) visibleRows() ([]fileItem, int) {
	if len(m.items) <= maxRows {
		return m.items, 0
	}
	finished := 0
	for _, it := range m.items {
		if it.status == patch.StatusDone {
			finished++
		}
	}
	skip := min(len(m.items)-maxRows, finished)
	rows := make([]fileItem, 0, len(m.items)-skip)
	for _, it := range m.items {
		if skip > 0 && it.status == patch.StatusDone {
			skip--
			continue
		}
		rows = append(rows, it)
	}
	return rows, len(m.items) - len(rows)
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev patch.Event) tea.Cmd {
	if ev.File == "" {
		return nil
	}
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	item.status = ev.Status
	switch ev.Status {
	case patch.StatusDone:
		item.changed = ev.Changed
		if ev.Changed {
			m.changed++
		}
	case patch.StatusError:
		m.failed++
	}

	total := 0.0
	for _, it := range m.items {
		total += weight(it.status)
	}
	return m.prog.SetPercent(total / float64(len(m.items)))
}

func weight(s patch.Status) float64 {
	switch s {
	case patch.StatusDone, patch.StatusError:
		return 1
	case patch.StatusWorking:
		return 0.5
	}
	return 0
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	// keep the file name, drop the front of the path
	rs := []rune(value)
	for runewidth.StringWidth(string(rs)) > width-3 {
		rs = rs[1:]
	}
	return "..." + string(rs)
}
