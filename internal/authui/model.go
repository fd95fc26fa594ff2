// Package authui provides the login and signup screens.
package authui

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/typingfast/internal/api"
	"github.com/verte-zerg/typingfast/internal/auth"
	"github.com/verte-zerg/typingfast/internal/model"
	"github.com/verte-zerg/typingfast/internal/screen"
)

// Mode selects which form is shown.
type Mode int

const (
	ModeLogin Mode = iota
	ModeSignup
)

const (
	loginFailed  = "Invalid credentials. Please try again."
	signupFailed = "Registration failed. Please try again."
)

// Authenticator performs the account operations behind the forms.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (model.User, error)
	Signup(ctx context.Context, username, email, password, confirm string) (model.User, error)
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E8C547"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	focusedLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	formStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

type field struct {
	label string
	input textinput.Model
}

type authMsg struct {
	id   int
	user model.User
	err  error
}

// Model is a login or signup form.
type Model struct {
	mode   Mode
	auth   Authenticator
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc

	fields []field
	focus  int

	submitting bool
	reqID      int
	errMsg     string
	notice     string
	spinner    spinner.Model
}

// NewLogin constructs the login form.
func NewLogin(a Authenticator, logger *zap.Logger) *Model {
	return newModel(ModeLogin, a, logger, []field{
		newField("Username", "Enter your username", false),
		newField("Password", "Enter your password", true),
	})
}

// NewSignup constructs the signup form.
func NewSignup(a Authenticator, logger *zap.Logger) *Model {
	return newModel(ModeSignup, a, logger, []field{
		newField("Username", "Choose a username", false),
		newField("Email", "Enter your email", false),
		newField("Password", "Create a password", true),
		newField("Confirm Password", "Confirm your password", true),
	})
}

func newModel(mode Mode, a Authenticator, logger *zap.Logger, fields []field) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		mode:    mode,
		auth:    a,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		fields:  fields,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.setFocus(0)
	return m
}

func newField(label, placeholder string, secret bool) field {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = placeholder
	input.CharLimit = 128
	input.Width = 32
	input.Cursor.SetMode(cursor.CursorBlink)
	if secret {
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '•'
	}
	return field{label: label, input: input}
}

// SetNotice shows a one-line message above the form, e.g. after a session
// expired.
func (m *Model) SetNotice(notice string) {
	m.notice = notice
}

// Mode reports which form this is.
func (m *Model) Mode() Mode {
	return m.mode
}

// Init implements screen.Screen.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Title implements screen.Screen.
func (m *Model) Title() string {
	if m.mode == ModeSignup {
		return "Sign Up"
	}
	return "Log In"
}

// Close implements screen.Screen.
func (m *Model) Close() {
	m.cancel()
	m.reqID++
}

// Update implements screen.Screen.
func (m *Model) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if m.ctx.Err() != nil {
		return m, nil
	}
	switch msg := msg.(type) {
	case authMsg:
		return m, m.handleAuth(msg)
	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEnter:
			return m, m.submit()
		case tea.KeyTab, tea.KeyDown:
			return m, m.setFocus(m.focus + 1)
		case tea.KeyShiftTab, tea.KeyUp:
			return m, m.setFocus(m.focus - 1)
		case tea.KeyCtrlN:
			if m.mode == ModeLogin {
				return m, screen.Navigate(screen.RouteSignup)
			}
			return m, screen.Navigate(screen.RouteLogin)
		}
	}
	var cmd tea.Cmd
	m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
	return m, cmd
}

func (m *Model) setFocus(idx int) tea.Cmd {
	count := len(m.fields)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.focus = idx
	var cmd tea.Cmd
	for i := range m.fields {
		if i == m.focus {
			cmd = m.fields[i].input.Focus()
		} else {
			m.fields[i].input.Blur()
		}
	}
	return cmd
}

func (m *Model) value(i int) string {
	return m.fields[i].input.Value()
}

func (m *Model) submit() tea.Cmd {
	m.reqID++
	m.submitting = true
	m.errMsg = ""
	m.notice = ""
	id := m.reqID
	ctx := m.ctx
	a := m.auth

	var call func() (model.User, error)
	if m.mode == ModeSignup {
		username, email, password, confirm := strings.TrimSpace(m.value(0)), strings.TrimSpace(m.value(1)), m.value(2), m.value(3)
		call = func() (model.User, error) { return a.Signup(ctx, username, email, password, confirm) }
	} else {
		username, password := strings.TrimSpace(m.value(0)), m.value(1)
		call = func() (model.User, error) { return a.Login(ctx, username, password) }
	}
	send := func() tea.Msg {
		user, err := call()
		return authMsg{id: id, user: user, err: err}
	}
	return tea.Batch(send, m.spinner.Tick)
}

func (m *Model) handleAuth(msg authMsg) tea.Cmd {
	if msg.id != m.reqID || !m.submitting {
		return nil
	}
	m.submitting = false
	if msg.err != nil {
		m.errMsg = m.describe(msg.err)
		m.logger.Info("authentication failed", zap.String("form", m.Title()), zap.Error(msg.err))
		return nil
	}
	m.logger.Info("authenticated", zap.String("username", msg.user.Username))
	return screen.Navigate(screen.RouteTyping)
}

func (m *Model) describe(err error) string {
	if auth.IsValidation(err) {
		return capitalize(err.Error())
	}
	def := loginFailed
	if m.mode == ModeSignup {
		def = signupFailed
	}
	return api.Message(err, def)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// View implements screen.Screen.
func (m *Model) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	title, subtitle, switchHint := "Welcome Back", "Sign in to continue your typing journey", "No account? ctrl+n to sign up"
	if m.mode == ModeSignup {
		title, subtitle, switchHint = "Create Account", "Start your typing improvement journey", "Have an account? ctrl+n to log in"
	}

	lines := []string{titleStyle.Render(title), subtleStyle.Render(subtitle), ""}
	if m.notice != "" {
		lines = append(lines, noticeStyle.Render(m.notice), "")
	}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg), "")
	}
	for i, f := range m.fields {
		label := labelStyle.Render(f.label)
		if i == m.focus {
			label = focusedLabel.Render(f.label)
		}
		lines = append(lines, label, f.input.View(), "")
	}
	if m.submitting {
		lines = append(lines, m.spinner.View()+" Please wait...")
	} else {
		lines = append(lines, subtleStyle.Render("enter: submit   "+switchHint))
	}
	box := formStyle.Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// KeyHints implements screen.KeyHintProvider.
func (m *Model) KeyHints() []screen.KeyHint {
	return []screen.KeyHint{
		{Key: "tab", Desc: "next field"},
		{Key: "enter", Desc: "submit"},
		{Key: "ctrl+n", Desc: "switch form"},
	}
}
