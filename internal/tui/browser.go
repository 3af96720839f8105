package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/workfold/workfold/internal/organize"
)

// --- Styles ---

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)

	folderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#87D7FF"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	workflowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	badgeAPI      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	badgeScrape   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	badgeDegraded = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// ViewBuilder recomputes the folder view, e.g. after a refresh.
type ViewBuilder interface {
	Build(ctx context.Context, owner, repo string) *organize.View
}

// FolderState persists which folders the user has expanded.
type FolderState interface {
	FolderExpanded(ctx context.Context, owner, repo string) (map[string]bool, error)
	SetFolderExpanded(ctx context.Context, owner, repo, folder string, expanded bool) error
}

// row is one rendered line: a folder header, a workflow, or an uncategorized
// workflow at the top level.
type row struct {
	folder   string
	workflow string
	isFolder bool
}

type Model struct {
	owner, repo string

	builder ViewBuilder
	state   FolderState

	view     *organize.View
	expanded map[string]bool
	rows     []row
	cursor   int

	viewport viewport.Model

	width  int
	height int

	loading bool
}

type viewMsg *organize.View
type expandedMsg map[string]bool

func NewBrowser(owner, repo string, builder ViewBuilder, state FolderState) *Model {
	return &Model{
		owner:    owner,
		repo:     repo,
		builder:  builder,
		state:    state,
		expanded: make(map[string]bool),
		loading:  true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadExpanded(),
		m.buildView(),
		tea.EnterAltScreen,
	)
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			m.syncViewport()
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
			m.syncViewport()
		case "enter", " ":
			return m.toggleCurrent()
		case "r":
			m.loading = true
			return m, m.buildView()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.width - 6
		m.viewport.Height = m.height - 10
		if m.viewport.Height < 3 {
			m.viewport.Height = 3
		}
		m.syncViewport()

	case viewMsg:
		m.view = (*organize.View)(msg)
		m.loading = false
		m.rebuildRows()

	case expandedMsg:
		m.expanded = map[string]bool(msg)
		m.rebuildRows()
	}

	return m, nil
}

// syncViewport refreshes the rendered rows and keeps the cursor line in view.
func (m *Model) syncViewport() {
	m.viewport.SetContent(m.renderRows())
	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	} else if m.cursor >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

func (m Model) toggleCurrent() (tea.Model, tea.Cmd) {
	if m.cursor >= len(m.rows) {
		return m, nil
	}
	r := m.rows[m.cursor]
	if !r.isFolder {
		return m, nil
	}

	m.expanded[r.folder] = !m.expanded[r.folder]
	m.rebuildRows()

	folder, expanded := r.folder, m.expanded[r.folder]
	return m, func() tea.Msg {
		if m.state != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = m.state.SetFolderExpanded(ctx, m.owner, m.repo, folder, expanded)
		}
		return nil
	}
}

func (m *Model) rebuildRows() {
	m.rows = m.rows[:0]
	if m.view == nil || m.view.Grouping == nil {
		return
	}

	for _, f := range m.view.Grouping.Folders {
		m.rows = append(m.rows, row{folder: f.Name, isFolder: true})
		if m.expanded[f.Name] {
			for _, wf := range f.Workflows {
				m.rows = append(m.rows, row{folder: f.Name, workflow: wf.Name})
			}
		}
	}
	for _, wf := range m.view.Grouping.Uncategorized {
		m.rows = append(m.rows, row{workflow: wf.Name})
	}

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.syncViewport()
}

// --- View ---

func (m Model) View() string {
	if m.width == 0 || m.loading {
		return "Loading..."
	}

	header := m.renderHeader()
	body := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Workflows"),
			m.viewport.View(),
		),
	)

	help := hintStyle.Render(" [enter] Expand/Collapse • [r] Refresh • [q] Quit")

	parts := []string{header, body}
	if m.view != nil && m.view.OfferCreateConfig {
		parts = append(parts, hintStyle.Render(" No folder config found. Add one to group these workflows."))
	}
	parts = append(parts, help)

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) renderHeader() string {
	badge := badgeDegraded.Render("UNAVAILABLE")
	if m.view != nil {
		switch {
		case m.view.Degraded:
			badge = badgeDegraded.Render("DEGRADED")
		case m.view.Source == "api":
			badge = badgeAPI.Render("API")
		case m.view.Source == "scrape":
			badge = badgeScrape.Render("SCRAPED")
		}
	}

	total := 0
	if m.view != nil && m.view.Grouping != nil {
		total = m.view.Grouping.Total()
	}

	items := []string{
		fmt.Sprintf("Project: %s/%s", m.owner, m.repo),
		fmt.Sprintf("Source: %s", badge),
		fmt.Sprintf("Workflows: %d", total),
	}

	return borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width((m.width-4)/3).Render(items[0]),
			lipgloss.NewStyle().Width((m.width-4)/3).Render(items[1]),
			lipgloss.NewStyle().Width((m.width-4)/3).Render(items[2]),
		),
	)
}

func (m Model) renderRows() string {
	if len(m.rows) == 0 {
		return "  No workflows."
	}

	var lines []string
	for i, r := range m.rows {
		var line string
		switch {
		case r.isFolder:
			marker := "▸"
			if m.expanded[r.folder] {
				marker = "▾"
			}
			line = folderStyle.Render(fmt.Sprintf("%s %s", marker, r.folder))
		case r.folder != "":
			line = "    " + workflowStyle.Render(r.workflow)
		default:
			line = "  " + workflowStyle.Render(r.workflow)
		}

		if i == m.cursor {
			line = cursorStyle.Render("›") + line
		} else {
			line = " " + line
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
}

// --- Commands ---

func (m Model) buildView() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return viewMsg(m.builder.Build(ctx, m.owner, m.repo))
	}
}

func (m Model) loadExpanded() tea.Cmd {
	return func() tea.Msg {
		if m.state == nil {
			return expandedMsg(map[string]bool{})
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		exp, err := m.state.FolderExpanded(ctx, m.owner, m.repo)
		if err != nil || exp == nil {
			exp = map[string]bool{}
		}
		return expandedMsg(exp)
	}
}
