// Package tui provides the Bubble Tea transcription interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ryotaka/kanasprint/internal/game"
	"github.com/ryotaka/kanasprint/internal/model"
	"github.com/ryotaka/kanasprint/internal/session"
)

var (
	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cursorStyle    = pendingStyle.Copy().Underline(true)
	countdownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	rankStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

type countdownTickMsg struct {
	gen int
}

// Model implements the Bubble Tea transcription UI.
type Model struct {
	game    *game.Context
	machine *session.Machine

	width  int
	height int

	// gen invalidates stale countdown ticks after a skip or retarget.
	gen     int
	fatal   string
	notice  string
	last    *game.SaveReport
	bestCPM int
}

// NewModel constructs the play model and selects the first passage.
func NewModel(g *game.Context) *Model {
	m := &Model{
		game:    g,
		machine: session.NewMachine(nil),
	}
	m.nextRound()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.startCountdown()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case countdownTickMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.machine.Tick()
		if m.machine.State() == session.StateCountdown {
			return m, m.tickCmd()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.fatal != "" {
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil
	}
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyTab:
		// Skip: abort the round, nothing is recorded.
		m.machine.Skip()
		m.nextRound()
		return m, m.startCountdown()
	case tea.KeyCtrlF:
		m.cycleDifficulty()
		return m, nil
	case tea.KeyCtrlT:
		m.toggleDaily()
		return m, nil
	case tea.KeyBackspace, tea.KeyDelete:
		m.machine.Keystroke(session.KeystrokeEdit)
		input := []rune(m.machine.Input())
		if len(input) > 0 {
			input = input[:len(input)-1]
		}
		return m, m.commitInput(string(input))
	case tea.KeyEnter:
		m.machine.Keystroke(session.KeystrokeCommit)
		return m, m.commitInput(m.machine.Input())
	case tea.KeySpace:
		m.machine.Keystroke(session.KeystrokeCommit)
		return m, m.commitInput(m.machine.Input() + " ")
	case tea.KeyRunes:
		input := m.machine.Input()
		for _, r := range msg.Runes {
			m.machine.Keystroke(session.KeystrokePrintable)
			input += string(r)
		}
		return m, m.commitInput(input)
	default:
		return m, nil
	}
}

func (m *Model) commitInput(value string) tea.Cmd {
	res := m.machine.InputChanged(value)
	if res == nil {
		return nil
	}
	m.finishRound(*res)
	m.nextRound()
	return m.startCountdown()
}

func (m *Model) finishRound(res session.Result) {
	report, err := m.game.SaveResult(context.Background(), res)
	if err != nil {
		m.notice = err.Error()
		return
	}
	m.last = &report
	switch {
	case report.Suppressed:
		m.notice = "too soon after the last save; round not recorded"
	case report.Failed():
		// Metrics stay on screen even though persistence failed; the next
		// completed round is the retry opportunity.
		m.notice = "failed to save round"
	default:
		m.notice = ""
	}
	if report.Record.Metrics.CPM > m.bestCPM {
		m.bestCPM = report.Record.Metrics.CPM
	}
}

func (m *Model) nextRound() {
	m.gen++
	passage, err := m.game.NextPassage()
	if err != nil {
		m.fatal = err.Error()
		m.machine.SetTarget("")
		return
	}
	m.machine.SetTarget(passage.Text)
}

func (m *Model) startCountdown() tea.Cmd {
	if !m.machine.StartCountdown() {
		return nil
	}
	return m.tickCmd()
}

func (m *Model) tickCmd() tea.Cmd {
	gen := m.gen
	return tea.Tick(session.CountdownInterval, func(time.Time) tea.Msg {
		return countdownTickMsg{gen: gen}
	})
}

func (m *Model) cycleDifficulty() {
	order := []model.Difficulty{
		model.DifficultyAll,
		model.DifficultyEasy,
		model.DifficultyNormal,
		model.DifficultyHard,
	}
	current := m.game.Filter().Difficulty
	if current == "" {
		current = model.DifficultyAll
	}
	next := order[0]
	for i, d := range order {
		if d == current {
			next = order[(i+1)%len(order)]
			break
		}
	}
	m.game.SetDifficulty(next)
}

func (m *Model) toggleDaily() {
	m.game.SetDailyActive(!m.game.Filter().DailyActive)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.fatal != "" {
		return m.place(noticeStyle.Render(m.fatal))
	}
	if cd := m.machine.Countdown(); cd >= 0 {
		content := countdownStyle.Render(fmt.Sprintf("%d", cd))
		return m.placeWithFooter(content)
	}
	target := m.machine.Target()
	if target == "" {
		return ""
	}
	judged := buildJudgmentRunes(m.machine.Judgment(), m.machine.State() == session.StateActive)
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(judged)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(judged, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	return m.placeWithFooter(content)
}

func (m *Model) place(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) placeWithFooter(content string) string {
	footer := m.renderFooter()
	if m.width == 0 || m.height == 0 {
		if footer == "" {
			return content
		}
		return content + "\n" + footer
	}
	if footer == "" || m.height < 3 {
		return m.place(content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderFooter() string {
	segments := []string{m.filterSummary()}
	if m.last != nil {
		rec := m.last.Record
		segments = append(segments, fmt.Sprintf("%s · %d pts · %d CPM · %d KPM · eff %.1f%%",
			rankStyle.Render(string(rec.Rank)), rec.RankingScore,
			rec.Metrics.CPM, rec.Metrics.KPM, rec.Metrics.Eff*100))
	}
	if m.bestCPM > 0 {
		segments = append(segments, fmt.Sprintf("Best %d CPM", m.bestCPM))
	}
	if m.notice != "" {
		segments = append(segments, noticeStyle.Render(m.notice))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) filterSummary() string {
	fc := m.game.Filter()
	diff := fc.Difficulty
	if diff == "" {
		diff = model.DifficultyAll
	}
	parts := []string{string(diff)}
	if fc.Category != "" && fc.Category != "all" {
		parts = append(parts, fc.Category)
	}
	if fc.DailyActive {
		parts = append(parts, "daily:"+fc.DailyTheme)
	} else if fc.Theme != "" && fc.Theme != "all" {
		parts = append(parts, fc.Theme)
	}
	return strings.Join(parts, "/")
}
