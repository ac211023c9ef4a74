// Package boardsui provides the Bubble Tea leaderboard browser.
package boardsui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ryotaka/kanasprint/internal/board"
	"github.com/ryotaka/kanasprint/internal/model"
	"github.com/ryotaka/kanasprint/internal/store"
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Model implements the Bubble Tea leaderboard browser.
type Model struct {
	store *store.Store
	fc    model.FilterContext
	date  string

	tabs      []string
	scopes    []model.Scope
	activeTab int
	tables    []table.Model
	errs      []string

	width  int
	height int
}

// NewModel constructs a leaderboard browser over the four scope partitions
// implied by the filter context.
func NewModel(st *store.Store, fc model.FilterContext) *Model {
	m := &Model{
		store:  st,
		fc:     fc,
		date:   time.Now().Format(board.DateFormat),
		tabs:   []string{"Overall", "Daily", "Category", "Theme"},
		scopes: []model.Scope{model.ScopeOverall, model.ScopeDaily, model.ScopeCategory, model.ScopeTheme},
	}
	m.tables = make([]table.Model, len(m.scopes))
	m.errs = make([]string, len(m.scopes))
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// refresh loads each scope's top entries independently; a failed read
// degrades that view to an error line without blocking the others.
func (m *Model) refresh() {
	ctx := context.Background()
	for i, scope := range m.scopes {
		key := board.Key(scope, m.fc, m.date)
		entries, err := m.store.TopEntries(ctx, key, store.TopLimit)
		if err != nil {
			m.errs[i] = fmt.Sprintf("failed to load %s board: %v", scope, err)
			m.tables[i] = buildBoardTable(nil, m.tableHeight())
			continue
		}
		m.errs[i] = ""
		m.tables[i] = buildBoardTable(entries, m.tableHeight())
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.tables {
			m.tables[i].SetHeight(m.tableHeight())
			m.tables[i].SetWidth(m.width)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.refresh()
			return m, nil
		default:
			var cmd tea.Cmd
			m.tables[m.activeTab], cmd = m.tables[m.activeTab].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(m.renderKeyLine()))
	b.WriteString("\n")
	if m.errs[m.activeTab] != "" {
		b.WriteString(errorStyle.Render(m.errs[m.activeTab]))
	} else {
		b.WriteString(m.tables[m.activeTab].View())
	}
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("←/→ switch scope · r reload · q quit"))
	return b.String()
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderKeyLine() string {
	return "Partition: " + board.Key(m.scopes[m.activeTab], m.fc, m.date)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
}

func (m *Model) tableHeight() int {
	// Tabs, key line, and help line.
	h := m.height - 5
	if h < store.TopLimit+1 {
		h = store.TopLimit + 1
	}
	return h
}

func buildBoardTable(entries []model.BoardEntry, height int) table.Model {
	columns := []table.Column{
		{Title: "#", Width: 3},
		{Title: "Player", Width: 16},
		{Title: "Rank", Width: 5},
		{Title: "Score", Width: 6},
		{Title: "CPM", Width: 5},
		{Title: "KPM", Width: 5},
		{Title: "WPM", Width: 5},
		{Title: "Eff", Width: 7},
		{Title: "Difficulty", Width: 10},
	}
	rows := make([]table.Row, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			e.Player,
			string(e.Rank),
			fmt.Sprintf("%d", e.Score),
			fmt.Sprintf("%d", e.CPM),
			fmt.Sprintf("%d", e.KPM),
			fmt.Sprintf("%d", e.WPM),
			fmt.Sprintf("%.4f", e.Eff),
			string(e.Difficulty),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(height),
	)
	t.SetStyles(boardTableStyles())
	t.Focus()
	return t
}

func boardTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}
