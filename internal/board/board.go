// Package board is the interactive terminal view over the project store.
// It lists projects, opens one into its live task board and applies task
// events from other clients as they arrive.
package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/uptask/cli"
	"github.com/grovetools/uptask/logging"
	"github.com/grovetools/uptask/pkg/models"
	"github.com/grovetools/uptask/pkg/store"
	"github.com/grovetools/uptask/tui/theme"
	"github.com/sirupsen/logrus"
)

// Store is the part of the project store the board drives.
type Store interface {
	State() store.State
	Subscribe() chan store.Update
	Unsubscribe(ch chan store.Update)
	LoadProjectList(ctx context.Context) error
	OpenProject(ctx context.Context, id string) error
	CloseProject()
	CompleteTask(ctx context.Context, id string) error
	HandleModalDeleteTask(t models.Task)
	DeleteTask(ctx context.Context) error
	ToggleSearch()
	SearchProjects(query string) []models.ProjectSummary
}

type updateMsg store.Update

// NavigateMsg asks the board to show route. store.RouteProjects returns to the
// project list.
type NavigateMsg struct {
	Route string
}

type subscriptionClosedMsg struct{}

type opDoneMsg struct {
	op  string
	err error
}

// Model is the bubbletea model of the board.
type Model struct {
	ctx    context.Context
	store  Store
	sub    chan store.Update
	keys   KeyMap
	help   help.Model
	search textinput.Model
	spin   spinner.Model
	theme  *theme.Theme
	logger *logrus.Entry

	initialProject string
	state          store.State
	projects       []models.ProjectSummary
	cursor         int
	width          int
	height         int
}

// New creates a board. When projectID is set the board starts on that project.
func New(ctx context.Context, st Store, projectID string) Model {
	search := textinput.New()
	search.Placeholder = "name or glob"
	search.Prompt = theme.IconFilter + " "

	m := Model{
		ctx:            ctx,
		store:          st,
		sub:            st.Subscribe(),
		keys:           DefaultKeyMap(),
		help:           help.New(),
		search:         search,
		spin:           spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:          theme.DefaultTheme,
		logger:         logging.NewLogger("board"),
		initialProject: projectID,
	}
	m.refresh()
	return m
}

// Init starts listening for store updates and loads the first view.
func (m Model) Init() tea.Cmd {
	load := m.run("load_projects", m.store.LoadProjectList)
	if m.initialProject != "" {
		load = m.openProject(m.initialProject)
	}
	return tea.Batch(m.listen(), load, m.spin.Tick)
}

func (m Model) listen() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		u, ok := <-sub
		if !ok {
			return subscriptionClosedMsg{}
		}
		return updateMsg(u)
	}
}

// run executes a store operation off the UI goroutine. Failures already
// reach the user as alerts, so the board only logs them.
func (m Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) openProject(id string) tea.Cmd {
	return m.run("open_project", func(ctx context.Context) error {
		return m.store.OpenProject(ctx, id)
	})
}

func (m *Model) refresh() {
	m.state = m.store.State()
	if m.state.Search {
		m.projects = m.store.SearchProjects(m.search.Value())
	} else {
		m.projects = m.state.Projects
	}
	if n := m.rows(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m Model) rows() int {
	if m.state.Project != nil {
		return len(m.state.Project.Tasks)
	}
	return len(m.projects)
}

func (m Model) selectedTask() (models.Task, bool) {
	if m.state.Project == nil || m.cursor >= len(m.state.Project.Tasks) {
		return models.Task{}, false
	}
	return m.state.Project.Tasks[m.cursor], true
}

// Update handles store notifications and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case updateMsg:
		wasOpen := m.state.Project != nil
		m.refresh()
		if wasOpen != (m.state.Project != nil) {
			m.cursor = 0
		}
		return m, m.listen()

	case subscriptionClosedMsg:
		return m, nil

	case NavigateMsg:
		if msg.Route != store.RouteProjects {
			return m, nil
		}
		if m.state.Project != nil {
			m.store.CloseProject()
		}
		m.cursor = 0
		m.refresh()
		return m, m.run("load_projects", m.store.LoadProjectList)

	case opDoneMsg:
		if msg.err != nil {
			m.logger.WithError(msg.err).WithField("op", msg.op).Debug("board operation failed")
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.Blur()
		m.search.SetValue("")
		m.store.ToggleSearch()
		m.refresh()
		return m, nil
	case tea.KeyEnter:
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cursor = 0
	m.refresh()
	return m, cmd
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.DeleteTaskModal {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m, m.run("delete_task", m.store.DeleteTask)
		case key.Matches(msg, m.keys.Cancel):
			m.store.HandleModalDeleteTask(m.state.SelectedTask)
			m.refresh()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.store.Unsubscribe(m.sub)
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.rows()-1 {
			m.cursor++
		}
	}

	if m.state.Project != nil {
		return m.updateProjectKeys(msg)
	}
	return m.updateListKeys(msg)
}

func (m Model) updateProjectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.run("complete_task", func(ctx context.Context) error {
			return m.store.CompleteTask(ctx, task.ID)
		})

	case key.Matches(msg, m.keys.Delete):
		if task, ok := m.selectedTask(); ok {
			m.store.HandleModalDeleteTask(task)
			m.refresh()
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.openProject(m.state.Project.ID)

	case key.Matches(msg, m.keys.Back):
		m.store.CloseProject()
		m.cursor = 0
		m.refresh()
		return m, m.run("load_projects", m.store.LoadProjectList)
	}
	return m, nil
}

func (m Model) updateListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(m.projects) {
			return m, m.openProject(m.projects[m.cursor].ID)
		}

	case key.Matches(msg, m.keys.Search):
		if !m.state.Search {
			m.store.ToggleSearch()
		}
		m.refresh()
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		return m, m.run("load_projects", m.store.LoadProjectList)
	}
	return m, nil
}

// View renders the board.
func (m Model) View() string {
	var b strings.Builder
	t := m.theme

	if m.state.Project != nil {
		m.viewProject(&b)
	} else {
		m.viewList(&b)
	}

	if m.state.Loading {
		b.WriteString("\n" + m.spin.View() + " " + t.Muted.Render("loading"))
	}
	if alert := t.RenderAlert(m.state.Alert); alert != "" {
		b.WriteString("\n" + alert)
	}
	if m.state.DeleteTaskModal {
		b.WriteString("\n" + t.Warning.Render(fmt.Sprintf("Delete task %q? (y/n)", m.state.SelectedTask.Name)))
	}
	b.WriteString("\n\n" + m.help.View(m.keys))
	return b.String()
}

func (m Model) viewList(b *strings.Builder) {
	t := m.theme
	b.WriteString(t.Header.Render("Projects") + "\n")
	if m.state.Search {
		b.WriteString(m.search.View() + "\n")
	}
	if len(m.projects) == 0 {
		b.WriteString(t.Muted.Render("no projects") + "\n")
		return
	}
	for i, p := range m.projects {
		line := fmt.Sprintf("%s %s", theme.IconProject, p.Name)
		if p.Client != "" {
			line += " " + t.Muted.Render(p.Client)
		}
		b.WriteString(m.row(i, line) + "\n")
	}
}

func (m Model) viewProject(b *strings.Builder) {
	t := m.theme
	p := m.state.Project

	header := t.Header.Render(theme.IconProject + " " + p.Name)
	if m.state.Room == p.ID {
		header += " " + t.Success.Render("live")
		if n := len(m.state.Peers); n > 0 {
			header += " " + t.Muted.Render(fmt.Sprintf("%s %d", theme.IconPeer, n))
		}
	}
	b.WriteString(header + "\n")

	if len(p.Tasks) == 0 {
		b.WriteString(t.Muted.Render("no tasks") + "\n")
		return
	}
	for i, task := range p.Tasks {
		b.WriteString(m.row(i, cli.TaskLine(t, task)) + "\n")
	}
}

func (m Model) row(i int, line string) string {
	if i == m.cursor {
		return m.theme.Highlight.Render(theme.IconArrow) + " " + line
	}
	return "  " + line
}
