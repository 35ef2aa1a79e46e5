package ui

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Snapshot is the aggregated transfer state rendered by the TUI.
type Snapshot struct {
	Total     int
	Completed int
	Failed    int
	Active    []string
	Started   time.Time
	Done      bool
}

// SnapshotMsg carries a new snapshot into the running program.
type SnapshotMsg Snapshot

// Model implements the tea.Model interface for the transfer dashboard.
type Model struct {
	state    Snapshot
	spinner  spinner.Model
	progress progress.Model
	viewport viewport.Model

	width  int
	height int

	titleStyle   lipgloss.Style
	infoStyle    lipgloss.Style
	activeStyle  lipgloss.Style
	helpStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	successStyle lipgloss.Style
}

func NewModel(initial Snapshot) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	prog := progress.New(progress.WithDefaultGradient())

	return Model{
		state:        initial,
		spinner:      s,
		progress:     prog,
		titleStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1),
		infoStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		activeStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		helpStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1),
		errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		successStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 14

		headerHeight := 5
		footerHeight := 2
		m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)

	case SnapshotMsg:
		m.state = Snapshot(msg)
		if m.state.Done {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sb strings.Builder

	header := fmt.Sprintf("%s Bitclient %s", m.spinner.View(), m.titleStyle.Render("Repository Transfers"))
	sb.WriteString(header + "\n")

	resolved := m.state.Completed + m.state.Failed
	var percent float64
	if m.state.Total > 0 {
		percent = float64(resolved) / float64(m.state.Total)
	}

	info := fmt.Sprintf("ETA: %s | %d/%d done | %d failed | %d in flight",
		formatETA(percent, m.state.Started, resolved, m.state.Total),
		m.state.Completed, m.state.Total, m.state.Failed, len(m.state.Active))

	sb.WriteString(m.infoStyle.Render(info) + "\n")
	sb.WriteString(m.progress.ViewAs(percent) + "\n\n")

	sb.WriteString("In flight:\n")
	var activeContent strings.Builder

	if len(m.state.Active) == 0 {
		activeContent.WriteString(m.infoStyle.Render("No transfers in flight..."))
	} else {
		for _, fileID := range m.state.Active {
			truncated := fileID
			if len(truncated) > 60 {
				truncated = "..." + truncated[len(truncated)-57:]
			}
			activeContent.WriteString(m.activeStyle.Render(truncated) + "\n")
		}
	}

	m.viewport.SetContent(activeContent.String())
	sb.WriteString(m.viewport.View())

	help := m.helpStyle.Render("q/ctrl+c: quit")
	if m.state.Done {
		status := m.successStyle.Render("All transfers done!")
		if m.state.Failed > 0 {
			status = m.errorStyle.Render(fmt.Sprintf("%d transfers failed.", m.state.Failed))
		}
		help = status + " Press 'q' to exit."
	}
	sb.WriteString("\n" + help)

	return sb.String()
}

func formatETA(progress float64, started time.Time, resolved, total int) string {
	if progress == 0 || resolved == 0 || started.IsZero() {
		return "Calculating..."
	}

	remaining := total - resolved
	if remaining <= 0 {
		return "0s"
	}

	perFile := time.Since(started) / time.Duration(resolved)
	d := perFile * time.Duration(remaining)

	if d.Hours() > 24 {
		return "> 1d"
	}

	return d.Round(time.Second).String()
}

// Reporter is a status.Reporter that feeds a running dashboard. It owns the
// aggregation; the model only renders snapshots.
type Reporter struct {
	mu        sync.Mutex
	send      func(tea.Msg)
	total     int
	completed int
	failed    int
	active    map[string]struct{}
	started   time.Time
}

// NewReporter creates a reporter pushing snapshots through send, normally the
// Send method of a running tea.Program. total sizes the progress bar.
func NewReporter(send func(tea.Msg), total int) *Reporter {
	return &Reporter{
		send:    send,
		total:   total,
		active:  map[string]struct{}{},
		started: time.Now(),
	}
}

func (r *Reporter) ReportStart(fileID string) {
	r.mu.Lock()
	r.active[fileID] = struct{}{}
	r.publishLocked(false)
	r.mu.Unlock()
}

func (r *Reporter) ReportFinish(fileID string) {
	r.mu.Lock()
	delete(r.active, fileID)
	r.completed++
	r.publishLocked(false)
	r.mu.Unlock()
}

func (r *Reporter) ReportFailure(fileID string, reason string) {
	r.mu.Lock()
	delete(r.active, fileID)
	r.failed++
	r.publishLocked(false)
	r.mu.Unlock()
}

// Finish tells the dashboard the run is over, which quits the program.
func (r *Reporter) Finish() {
	r.mu.Lock()
	r.publishLocked(true)
	r.mu.Unlock()
}

func (r *Reporter) publishLocked(done bool) {
	active := make([]string, 0, len(r.active))
	for fileID := range r.active {
		active = append(active, fileID)
	}
	sort.Strings(active)

	r.send(SnapshotMsg(Snapshot{
		Total:     r.total,
		Completed: r.completed,
		Failed:    r.failed,
		Active:    active,
		Started:   r.started,
		Done:      done,
	}))
}
