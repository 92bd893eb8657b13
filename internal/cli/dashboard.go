package cli

import (
	"context"
	"fmt"
	"strings"

	"estuda/internal/cli/formatter"
	"estuda/internal/domain"
	"estuda/internal/ledger"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive dashboard with metrics and the task list",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive != nil && !app.IsInteractive() {
				return fmt.Errorf("the dashboard requires a terminal")
			}
			_, err := tea.NewProgram(newDashboardModel(app), tea.WithAltScreen()).Run()
			return err
		},
	}
}

// ── messages ─────────────────────────────────────────────────────────────────

// dashboardLoadedMsg signals that metrics and tasks have been loaded.
type dashboardLoadedMsg struct {
	snap  *domain.MetricsSnapshot
	tasks []domain.Task
	err   error
}

// taskMutatedMsg signals that a complete/delete finished; the dashboard
// reloads on receipt.
type taskMutatedMsg struct {
	note string
	err  error
}

// ── keys ─────────────────────────────────────────────────────────────────────

type dashboardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Complete key.Binding
	Delete   key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

func newDashboardKeyMap() dashboardKeyMap {
	return dashboardKeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Complete: key.NewBinding(key.WithKeys("enter", "x"), key.WithHelp("enter/x", "complete")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ── model ────────────────────────────────────────────────────────────────────

// dashboardModel shows the metric cards over a selectable pending-task
// list. Completing a task from here goes through the same ledger path as
// the task commands, so the streak and totals refresh in place.
type dashboardModel struct {
	app  *App
	keys dashboardKeyMap

	snap    *domain.MetricsSnapshot
	tasks   []domain.Task
	cursor  int
	loading bool
	status  string
	err     error
}

func newDashboardModel(app *App) *dashboardModel {
	return &dashboardModel{
		app:     app,
		keys:    newDashboardKeyMap(),
		loading: true,
	}
}

func (m *dashboardModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *dashboardModel) loadData() tea.Cmd {
	app := m.app
	return func() tea.Msg {
		ctx := context.Background()

		snap, err := app.Tasks.ComputeMetrics(ctx, ledger.MetricsWindowDays)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}
		snap.PlansCompleted, err = app.Plans.CompletedCount(ctx)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}

		all, err := app.Tasks.Tasks(ctx)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}
		pending := make([]domain.Task, 0, len(all))
		for _, t := range all {
			if !t.Completed {
				pending = append(pending, t)
			}
		}

		return dashboardLoadedMsg{snap: snap, tasks: pending}
	}
}

func (m *dashboardModel) completeSelected() tea.Cmd {
	if m.cursor >= len(m.tasks) {
		return nil
	}
	task := m.tasks[m.cursor]
	app := m.app
	return func() tea.Msg {
		if err := app.Tasks.CompleteTask(context.Background(), task.ID); err != nil {
			return taskMutatedMsg{err: err}
		}
		return taskMutatedMsg{note: "Completed " + task.Text}
	}
}

func (m *dashboardModel) deleteSelected() tea.Cmd {
	if m.cursor >= len(m.tasks) {
		return nil
	}
	task := m.tasks[m.cursor]
	app := m.app
	return func() tea.Msg {
		if err := app.Tasks.DeleteTask(context.Background(), task.ID); err != nil {
			return taskMutatedMsg{err: err}
		}
		return taskMutatedMsg{note: "Removed " + task.Text}
	}
}

func (m *dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.snap = msg.snap
		m.tasks = msg.tasks
		if m.cursor >= len(m.tasks) && m.cursor > 0 {
			m.cursor = len(m.tasks) - 1
		}
		return m, nil

	case taskMutatedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.status = msg.note
		m.loading = true
		return m, m.loadData()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.tasks)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Complete):
			return m, m.completeSelected()
		case key.Matches(msg, m.keys.Delete):
			return m, m.deleteSelected()
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			m.status = ""
			return m, m.loadData()
		}
	}
	return m, nil
}

func (m *dashboardModel) View() string {
	if m.loading && m.snap == nil {
		return formatter.StyleDim.Render("Loading…") + "\n"
	}

	var b strings.Builder

	if m.err != nil {
		b.WriteString(formatter.StyleRed.Render("Error: "+m.err.Error()) + "\n\n")
	}
	if m.snap != nil {
		b.WriteString(formatter.FormatMetrics(m.snap))
		b.WriteString("\n")
	}

	b.WriteString(formatter.StyleHeader.Render("Tasks") + "\n")
	if len(m.tasks) == 0 {
		b.WriteString(formatter.StyleDim.Render("  No pending tasks.") + "\n")
	}
	for i, t := range m.tasks {
		marker := "  "
		line := formatter.FormatTaskLine(t)
		if i == m.cursor {
			marker = formatter.StyleHeader.Render("> ")
		}
		b.WriteString(marker + line + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + formatter.StyleGreen.Render(m.status) + "\n")
	}
	b.WriteString("\n" + formatter.StyleDim.Render(m.helpLine()) + "\n")
	return b.String()
}

func (m *dashboardModel) helpLine() string {
	bindings := []key.Binding{
		m.keys.Up, m.keys.Down, m.keys.Complete, m.keys.Delete, m.keys.Refresh, m.keys.Quit,
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, b.Help().Key+" "+b.Help().Desc)
	}
	return strings.Join(parts, " · ")
}
