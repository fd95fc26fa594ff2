// Package statsui provides the Bubble Tea dashboard screen.
package statsui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/verte-zerg/typingfast/internal/screen"
	"github.com/verte-zerg/typingfast/internal/stats"
)

const (
	tabOverview = iota
	tabHistory
)

const trendWindow = 3

// LoadErrorMessage is shown when any dashboard read fails.
const LoadErrorMessage = "Failed to load dashboard data. Please try again."

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
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	highlightCardStyle = cardStyle.BorderForeground(lipgloss.Color("#C89A3A"))
	cardTitleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	sectionStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	tableMutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Deps are the collaborators of the dashboard.
type Deps struct {
	Source   stats.ReportSource
	Logger   *zap.Logger
	Location *time.Location
}

type reportMsg struct {
	id     int
	report stats.Report
	err    error
}

// Model implements the dashboard screen.
type Model struct {
	deps   Deps
	ctx    context.Context
	cancel context.CancelFunc

	loading bool
	reqID   int
	report  stats.Report
	errMsg  string

	tabs         []string
	activeTab    int
	overview     viewport.Model
	historyTable table.Model
	layout       tableLayout
	spinner      spinner.Model

	width  int
	height int
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
}

// NewModel constructs the dashboard.
func NewModel(deps Deps) *Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Model{
		deps:         deps,
		ctx:          ctx,
		cancel:       cancel,
		tabs:         []string{"Overview", "History"},
		overview:     viewport.New(0, 0),
		historyTable: buildHistoryTable(nil, 0, 1),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Init implements screen.Screen.
func (m *Model) Init() tea.Cmd {
	return m.load()
}

// Title implements screen.Screen.
func (m *Model) Title() string {
	return "Dashboard"
}

// Close implements screen.Screen.
func (m *Model) Close() {
	m.cancel()
	m.reqID++
}

// Report returns the last loaded report.
func (m *Model) Report() stats.Report {
	return m.report
}

func (m *Model) load() tea.Cmd {
	m.reqID++
	m.loading = true
	m.errMsg = ""
	id := m.reqID
	ctx := m.ctx
	src := m.deps.Source
	fetch := func() tea.Msg {
		report, err := stats.BuildReport(ctx, src)
		return reportMsg{id: id, report: report, err: err}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

// Update implements screen.Screen.
func (m *Model) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if m.ctx.Err() != nil {
		return m, nil
	}
	switch msg := msg.(type) {
	case reportMsg:
		if msg.id != m.reqID {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.deps.Logger.Warn("failed to load dashboard", zap.Error(msg.err))
			m.errMsg = LoadErrorMessage
			m.report = stats.Report{}
			return m, nil
		}
		m.report = msg.report
		m.refresh()
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	if m.errMsg != "" {
		if msg.String() == "r" || msg.Type == tea.KeyCtrlR {
			return m, m.load()
		}
		return m, nil
	}
	switch msg.String() {
	case "ctrl+r":
		return m, m.load()
	case "enter":
		return m, screen.Navigate(screen.RouteTyping)
	case "left", "h":
		m.moveTab(-1)
		return m, nil
	case "right", "l":
		m.moveTab(1)
		return m, nil
	case "g", "home":
		if m.activeTab == tabHistory {
			m.historyTable.GotoTop()
		} else {
			m.overview.GotoTop()
		}
		return m, nil
	case "G", "end":
		if m.activeTab == tabHistory {
			m.historyTable.GotoBottom()
		} else {
			m.overview.GotoBottom()
		}
		return m, nil
	}
	var cmd tea.Cmd
	if m.activeTab == tabHistory {
		m.historyTable, cmd = m.historyTable.Update(msg)
	} else {
		m.overview, cmd = m.overview.Update(msg)
	}
	return m, cmd
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	if m.activeTab == tabHistory {
		m.historyTable.Focus()
	} else {
		m.historyTable.Blur()
	}
}

func (m *Model) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if width == m.width && height == m.height {
		return
	}
	m.width = width
	m.height = height
	bodyHeight := m.bodyHeight()
	m.overview.Width = width
	m.overview.Height = bodyHeight
	m.setTableSize(width, bodyHeight)
	m.renderOverview()
}

func (m *Model) headerHeight() int {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	return tabsHeight + 1
}

func (m *Model) bodyHeight() int {
	return maxInt(1, m.height-m.headerHeight())
}

func (m *Model) refresh() {
	recent := stats.RecentHistory(m.report.History)
	m.historyTable.SetRows(historyRows(recent, m.deps.Location))
	m.layout.rowCount = len(recent)
	m.renderOverview()
}

func (m *Model) renderOverview() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, width))
}

// View implements screen.Screen.
func (m *Model) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	m.resize(width, height)
	if m.loading {
		msg := m.spinner.View() + " Loading your dashboard..."
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, msg)
	}
	if m.errMsg != "" {
		msg := errorStyle.Render(m.errMsg) + "\n\n" + headerStyle.Render("press r to try again")
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, msg)
	}
	header := fitLines(m.renderHeader(), width, m.headerHeight())
	body := fitLines(m.renderBody(), width, m.bodyHeight())
	return header + "\n" + body
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

func (m *Model) renderHeader() string {
	p := m.report.Profile
	welcome := fmt.Sprintf("Welcome, %s!  Member since %s", p.Username, stats.FormatDate(p.CreatedAt.Time, m.deps.Location))
	return padLines(m.renderTabs(), m.width) + "\n" + headerStyle.Render(truncateLine(welcome, m.width))
}

func (m *Model) renderBody() string {
	if m.activeTab == tabHistory {
		if len(m.report.History) == 0 {
			return "No typing history yet. Press enter to take your first test."
		}
		return tableMutedStyle.Render(m.historyTable.View())
	}
	return m.overview.View()
}

func renderOverview(report stats.Report, width int) string {
	st := report.Stats
	cards := []string{
		highlightCard("Best WPM", fmt.Sprintf("%.1f", st.BestWPM)),
		metricCard("Average WPM", fmt.Sprintf("%.1f", st.AverageWPM)),
		metricCard("Best Accuracy", fmt.Sprintf("%.1f%%", st.BestAccuracy)),
		metricCard("Avg Accuracy", fmt.Sprintf("%.1f%%", st.AverageAccuracy)),
		metricCard("Total Tests", fmt.Sprintf("%d", st.TotalTests)),
		metricCard("Total Time", stats.FormatDuration(st.TotalTimeSeconds)),
	}
	var grid string
	if width < 80 {
		grid = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
		grid = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}

	recent := []string{
		metricCard("Recent Avg WPM", fmt.Sprintf("%.1f", st.RecentAverageWPM)),
		metricCard("Recent Avg Accuracy", fmt.Sprintf("%.1f%%", st.RecentAverageAccuracy)),
		metricCard("Characters Typed", humanize.Comma(int64(st.TotalCharactersTyped))),
		metricCard("Total Errors", fmt.Sprintf("%d", st.TotalErrors)),
	}
	var perf string
	if width < 80 {
		perf = strings.Join(recent, "\n")
	} else {
		perf = lipgloss.JoinHorizontal(lipgloss.Top, recent...)
	}

	lines := []string{grid, "", sectionStyle.Render("Recent Performance") + headerStyle.Render("  (last 10 tests)"), perf}
	if trend := stats.WPMTrend(report.History, trendWindow); len(trend) > 1 {
		lines = append(lines, "", sectionStyle.Render("WPM Trend"), truncateLine(stats.Sparkline(trend), width))
	}
	if len(report.History) == 0 {
		lines = append(lines, "", "No typing history yet. Press enter to take your first test.")
	}
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func highlightCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return highlightCardStyle.Render(content)
}

// KeyHints implements screen.KeyHintProvider.
func (m *Model) KeyHints() []screen.KeyHint {
	if m.loading {
		return nil
	}
	if m.errMsg != "" {
		return []screen.KeyHint{{Key: "r", Desc: "try again"}}
	}
	return []screen.KeyHint{
		{Key: "left/right", Desc: "tabs"},
		{Key: "up/down", Desc: "scroll"},
		{Key: "enter", Desc: "start typing"},
		{Key: "ctrl+r", Desc: "refresh"},
	}
}
