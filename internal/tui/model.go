// Package tui provides the Bubble Tea typing interface and the app shell
// that routes between screens.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/typingfast/internal/model"
	"github.com/verte-zerg/typingfast/internal/screen"
	"github.com/verte-zerg/typingfast/internal/stats"
	"github.com/verte-zerg/typingfast/internal/typing"
)

// TickInterval is how often live metrics refresh while a session runs.
const TickInterval = 100 * time.Millisecond

// WordOptions are the selectable practice text lengths.
var WordOptions = []int{15, 30, 50, 100}

// DefaultWords is the initial practice text length.
const DefaultWords = 30

// TextSource supplies practice texts.
type TextSource interface {
	Text(ctx context.Context, words int) (string, error)
}

// ResultLog records finished sessions locally.
type ResultLog interface {
	InsertResult(ctx context.Context, r model.LocalResult) (int64, error)
	ListResults(ctx context.Context, limit int) ([]model.LocalResult, error)
}

// AuthState reports whether a user is signed in.
type AuthState interface {
	IsAuthenticated() bool
}

// Deps are the collaborators of the typing screen.
type Deps struct {
	Texts   TextSource
	Scorer  typing.Scorer
	Results ResultLog
	Auth    AuthState
	Logger  *zap.Logger
	Now     func() time.Time
}

type phase int

const (
	phaseLoading phase = iota
	phaseError
	phaseTyping
	phaseSubmitting
	phaseResult
)

type textMsg struct {
	id   int
	text string
	err  error
}

type tickMsg struct {
	run int
	at  time.Time
}

type resultMsg struct {
	run        int
	result     model.SessionResult
	durationS  int
	finishedAt time.Time
}

type footerMsg struct {
	stats footerStats
	err   error
}

type footerStats struct {
	hasLast  bool
	lastWPM  float64
	lastAcc  float64
	lastSrc  model.ResultSource
	count    int
	allWPM   float64
	allAcc   float64
	allSecs  int
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	activeWordsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	resultCardStyle  = lipgloss.NewStyle().
				Padding(0, 2).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// Model implements the typing screen.
type Model struct {
	deps   Deps
	ctx    context.Context
	cancel context.CancelFunc

	words int
	phase phase

	session        *typing.Session
	metrics        typing.Metrics
	result         model.SessionResult
	resultDuration int
	errMsg         string

	// fetchID tags text requests, runID tags the tick chain and the
	// finalizer of the current session. Messages carrying an older id are
	// dropped.
	fetchID int
	runID   int

	footer   footerStats
	spinner  spinner.Model
	progress progress.Model
}

// NewModel constructs the typing screen.
func NewModel(deps Deps, words int) *Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if words <= 0 {
		words = DefaultWords
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Model{
		deps:     deps,
		ctx:      ctx,
		cancel:   cancel,
		words:    words,
		phase:    phaseLoading,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Init implements screen.Screen.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchText(), m.loadFooterStats())
}

// Title implements screen.Screen.
func (m *Model) Title() string {
	return "Practice"
}

// Close implements screen.Screen.
func (m *Model) Close() {
	m.cancel()
	m.runID++
	m.fetchID++
}

// Words returns the selected text length.
func (m *Model) Words() int {
	return m.words
}

// Update implements screen.Screen.
func (m *Model) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if m.ctx.Err() != nil {
		return m, nil
	}
	switch msg := msg.(type) {
	case textMsg:
		return m, m.handleText(msg)
	case tickMsg:
		return m, m.handleTick(msg)
	case resultMsg:
		return m, m.handleResult(msg)
	case footerMsg:
		if msg.err != nil {
			m.deps.Logger.Warn("failed to load local results", zap.Error(msg.err))
			return m, nil
		}
		m.footer = msg.stats
		return m, nil
	case spinner.TickMsg:
		if m.phase != phaseLoading && m.phase != phaseSubmitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlR:
		if m.phase == phaseLoading || m.phase == phaseSubmitting {
			return nil
		}
		return m.fetchText()
	case tea.KeyTab:
		if !m.canChangeWords() {
			return nil
		}
		m.words = nextWords(m.words)
		return m.fetchText()
	}

	switch m.phase {
	case phaseError:
		if msg.String() == "r" {
			return m.fetchText()
		}
	case phaseResult:
		switch msg.String() {
		case "enter":
			return m.fetchText()
		case "ctrl+s":
			if !m.isAuthenticated() {
				return screen.Navigate(screen.RouteSignup)
			}
		}
	case phaseTyping:
		return m.handleTypingKey(msg)
	}
	return nil
}

func (m *Model) handleTypingKey(msg tea.KeyMsg) tea.Cmd {
	var step typing.Step
	wasIdle := m.session.State() == typing.Idle
	now := m.deps.Now()
	switch msg.Type {
	case tea.KeyBackspace:
		step = m.session.Backspace()
	case tea.KeySpace:
		step = m.session.Type(' ', now)
	case tea.KeyRunes:
		// One key, one character: pasted or composed input is rejected.
		if msg.Paste || len(msg.Runes) != 1 {
			return nil
		}
		step = m.session.Type(msg.Runes[0], now)
	default:
		return nil
	}
	if step == typing.Ignored {
		return nil
	}
	m.metrics = m.session.Metrics(now)

	switch {
	case step == typing.Completed:
		return m.finish()
	case wasIdle && m.session.State() == typing.Running:
		m.runID++
		return m.tick()
	}
	return nil
}

func (m *Model) canChangeWords() bool {
	switch m.phase {
	case phaseTyping:
		return m.session.State() == typing.Idle
	case phaseResult, phaseError:
		return true
	default:
		return false
	}
}

// nextWords returns the smallest option above current, wrapping around.
func nextWords(current int) int {
	for _, w := range WordOptions {
		if w > current {
			return w
		}
	}
	return WordOptions[0]
}

func (m *Model) isAuthenticated() bool {
	return m.deps.Auth != nil && m.deps.Auth.IsAuthenticated()
}

func (m *Model) fetchText() tea.Cmd {
	m.fetchID++
	m.runID++
	m.phase = phaseLoading
	m.errMsg = ""
	m.session = nil
	m.metrics = typing.Metrics{}

	id := m.fetchID
	words := m.words
	ctx := m.ctx
	texts := m.deps.Texts
	fetch := func() tea.Msg {
		text, err := texts.Text(ctx, words)
		return textMsg{id: id, text: text, err: err}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}

func (m *Model) handleText(msg textMsg) tea.Cmd {
	if msg.id != m.fetchID || m.phase != phaseLoading {
		return nil
	}
	if msg.err != nil {
		m.deps.Logger.Warn("failed to load practice text", zap.Int("words", m.words), zap.Error(msg.err))
		m.phase = phaseError
		m.errMsg = "Failed to load text. Please try again."
		return nil
	}
	m.session = typing.New(msg.text)
	m.metrics = m.session.Metrics(m.deps.Now())
	m.phase = phaseTyping
	return nil
}

func (m *Model) tick() tea.Cmd {
	run := m.runID
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return tickMsg{run: run, at: t}
	})
}

// handleTick refreshes live metrics and keeps the chain going only while
// the session that started it is still running.
func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if msg.run != m.runID || m.phase != phaseTyping || m.session.State() != typing.Running {
		return nil
	}
	m.metrics = m.session.Metrics(m.deps.Now())
	return m.tick()
}

func (m *Model) finish() tea.Cmd {
	m.runID++
	m.phase = phaseSubmitting
	run := m.runID
	ctx := m.ctx
	sess := m.session
	scorer := m.deps.Scorer
	logger := m.deps.Logger
	finishedAt := m.deps.Now()
	submit := func() tea.Msg {
		res := typing.Finalize(ctx, scorer, sess, logger)
		return resultMsg{
			run:        run,
			result:     res,
			durationS:  sess.Transcript().Duration,
			finishedAt: finishedAt,
		}
	}
	return tea.Batch(submit, m.spinner.Tick)
}

func (m *Model) handleResult(msg resultMsg) tea.Cmd {
	if msg.run != m.runID || m.phase != phaseSubmitting {
		return nil
	}
	m.phase = phaseResult
	m.result = msg.result
	m.resultDuration = msg.durationS
	m.deps.Logger.Info("session finished",
		zap.Float64("wpm", msg.result.WPM),
		zap.Float64("accuracy", msg.result.Accuracy),
		zap.Int("errors", msg.result.Errors),
		zap.Int("duration_s", msg.durationS),
		zap.String("source", string(msg.result.Source)),
	)
	return m.saveResult(model.LocalResult{
		FinishedAt: msg.finishedAt,
		Words:      m.words,
		DurationS:  msg.durationS,
		Result:     msg.result,
	})
}

func (m *Model) saveResult(r model.LocalResult) tea.Cmd {
	if m.deps.Results == nil {
		return nil
	}
	ctx := m.ctx
	results := m.deps.Results
	logger := m.deps.Logger
	return func() tea.Msg {
		if _, err := results.InsertResult(ctx, r); err != nil {
			logger.Warn("failed to save result", zap.Error(err))
		}
		return loadFooter(ctx, results)
	}
}

func (m *Model) loadFooterStats() tea.Cmd {
	if m.deps.Results == nil {
		return nil
	}
	ctx := m.ctx
	results := m.deps.Results
	return func() tea.Msg {
		return loadFooter(ctx, results)
	}
}

func loadFooter(ctx context.Context, results ResultLog) tea.Msg {
	list, err := results.ListResults(ctx, 0)
	if err != nil {
		return footerMsg{err: err}
	}
	return footerMsg{stats: summarizeResults(list)}
}

// summarizeResults folds the local log, newest first, into footer figures.
func summarizeResults(list []model.LocalResult) footerStats {
	var fs footerStats
	if len(list) == 0 {
		return fs
	}
	fs.hasLast = true
	fs.lastWPM = list[0].Result.WPM
	fs.lastAcc = list[0].Result.Accuracy
	fs.lastSrc = list[0].Result.Source
	for _, r := range list {
		fs.allWPM += r.Result.WPM
		fs.allAcc += r.Result.Accuracy
		fs.allSecs += r.DurationS
	}
	fs.count = len(list)
	fs.allWPM /= float64(fs.count)
	fs.allAcc /= float64(fs.count)
	return fs
}

// View implements screen.Screen.
func (m *Model) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	contentWidth := int(float64(width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}

	var body string
	switch m.phase {
	case phaseLoading:
		body = m.spinner.View() + " Loading text..."
	case phaseError:
		body = errorStyle.Render(m.errMsg) + "\n\n" + labelStyle.Render("press r to retry")
	case phaseTyping, phaseSubmitting:
		body = m.renderTyping(contentWidth)
	case phaseResult:
		body = m.renderResult()
	}
	content := lipgloss.JoinVertical(lipgloss.Center, m.renderWordSelector(), "", body)

	footer := m.renderFooter()
	if footer == "" || height < 3 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := height - 1
	placed := lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(width, 1, lipgloss.Center, lipgloss.Center, footer)
	return placed + "\n" + footerLine
}

func (m *Model) renderWordSelector() string {
	parts := []string{labelStyle.Render("Words:")}
	custom := true
	for _, w := range WordOptions {
		if w == m.words {
			custom = false
		}
	}
	if custom {
		parts = append(parts, activeWordsStyle.Render(fmt.Sprintf("[%d]", m.words)))
	}
	for _, w := range WordOptions {
		label := fmt.Sprintf("%d", w)
		if w == m.words {
			parts = append(parts, activeWordsStyle.Render("["+label+"]"))
		} else {
			parts = append(parts, pendingStyle.Render(" "+label+" "))
		}
	}
	return strings.Join(parts, " ")
}

func (m *Model) renderLiveStats() string {
	seconds := int(m.metrics.Elapsed / time.Second)
	segments := []string{
		labelStyle.Render("Time ") + valueStyle.Render(stats.FormatClock(seconds)),
		labelStyle.Render("WPM ") + valueStyle.Render(fmt.Sprintf("%.0f", m.metrics.WPM)),
		labelStyle.Render("Accuracy ") + valueStyle.Render(fmt.Sprintf("%.0f%%", m.metrics.Accuracy)),
		labelStyle.Render("Errors ") + valueStyle.Render(fmt.Sprintf("%d", m.metrics.Errors)),
	}
	return strings.Join(segments, "   ")
}

func (m *Model) renderTyping(contentWidth int) string {
	styled := buildStyledRunes(m.session.Cells())
	text := lipgloss.NewStyle().Width(contentWidth).Render(wrapStyledRunes(styled, contentWidth))
	m.progress.Width = contentWidth
	parts := []string{m.renderLiveStats(), "", text, "", m.progress.ViewAs(m.session.Progress())}
	switch {
	case m.phase == phaseSubmitting:
		parts = append(parts, m.spinner.View()+" Scoring...")
	case m.session.State() == typing.Idle:
		parts = append(parts, labelStyle.Render("Start typing..."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderResult() string {
	res := m.result
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		resultCard("WPM", fmt.Sprintf("%.1f", res.WPM)),
		resultCard("Accuracy", fmt.Sprintf("%.1f%%", res.Accuracy)),
		resultCard("Errors", fmt.Sprintf("%d", res.Errors)),
		resultCard("Time", stats.FormatClock(m.resultDuration)),
	)
	lines := []string{titleStyle.Render("Test Complete!"), "", cards}
	if res.Source == model.SourceLocal {
		lines = append(lines, labelStyle.Render("Scored locally: the server could not be reached."))
	}
	actions := "enter: try again"
	if m.isAuthenticated() {
		actions += "   ctrl+d: view dashboard"
	} else {
		actions += "   ctrl+s: sign up to save results"
	}
	lines = append(lines, "", labelStyle.Render(actions))
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func resultCard(label, value string) string {
	return resultCardStyle.Render(lipgloss.JoinVertical(lipgloss.Center, valueStyle.Render(value), labelStyle.Render(label)))
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if m.session != nil && (m.phase == phaseTyping || m.phase == phaseSubmitting) {
		segments = append(segments, fmt.Sprintf("Progress %d%%", int(m.session.Progress()*100)))
	}
	if m.footer.hasLast {
		last := fmt.Sprintf("Last %.1f WPM · %.1f%%", m.footer.lastWPM, m.footer.lastAcc)
		if m.footer.lastSrc == model.SourceLocal {
			last += " (local)"
		}
		segments = append(segments, last)
		segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%% over %d tests (%s)",
			m.footer.allWPM, m.footer.allAcc, m.footer.count, stats.FormatDuration(m.footer.allSecs)))
	}
	if len(segments) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

// KeyHints implements screen.KeyHintProvider.
func (m *Model) KeyHints() []screen.KeyHint {
	switch m.phase {
	case phaseError:
		return []screen.KeyHint{{Key: "r", Desc: "retry"}, {Key: "tab", Desc: "words"}}
	case phaseResult:
		return []screen.KeyHint{{Key: "enter", Desc: "try again"}, {Key: "tab", Desc: "words"}, {Key: "ctrl+r", Desc: "new text"}}
	case phaseTyping:
		if m.session.State() == typing.Idle {
			return []screen.KeyHint{{Key: "tab", Desc: "words"}, {Key: "ctrl+r", Desc: "new text"}}
		}
		return []screen.KeyHint{{Key: "ctrl+r", Desc: "new text"}}
	}
	return nil
}
