package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/typingfast/internal/auth"
	"github.com/verte-zerg/typingfast/internal/model"
	"github.com/verte-zerg/typingfast/internal/screen"
)

const (
	noticeExpired        = "Session expired, please log in again"
	noticeLoginDashboard = "Log in to view your dashboard"
)

// SessionState is the slice of the auth session the app shell needs.
type SessionState interface {
	IsAuthenticated() bool
	CurrentUser() (model.User, bool)
	Logout(ctx context.Context) error
	Subscribe(fn func(auth.Event)) (cancel func())
}

// ScreenFactory builds a fresh screen for a route.
type ScreenFactory func() screen.Screen

type noticeSetter interface {
	SetNotice(string)
}

type authEventMsg struct {
	event auth.Event
}

type logoutMsg struct {
	err error
}

var (
	brandStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	hintKey     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// App is the root Bubble Tea model. It owns the active screen, switches
// routes and reacts to auth session changes.
type App struct {
	session SessionState
	screens map[screen.Route]ScreenFactory
	logger  *zap.Logger
	start   screen.Route

	route   screen.Route
	current screen.Screen

	width  int
	height int

	events      chan auth.Event
	unsubscribe func()
}

// NewApp constructs the app shell. start is the first route shown.
func NewApp(session SessionState, screens map[screen.Route]ScreenFactory, start screen.Route, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		session: session,
		screens: screens,
		logger:  logger,
		start:   start,
		events:  make(chan auth.Event, 8),
	}
	a.unsubscribe = session.Subscribe(func(ev auth.Event) {
		select {
		case a.events <- ev:
		default:
			logger.Warn("dropped auth event", zap.Stringer("event", ev))
		}
	})
	return a
}

// Route returns the active route.
func (a *App) Route() screen.Route {
	return a.route
}

// Current returns the active screen.
func (a *App) Current() screen.Screen {
	return a.current
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.navigate(a.start, ""), a.waitEvent())
}

func (a *App) waitEvent() tea.Cmd {
	events := a.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return authEventMsg{event: ev}
	}
}

// Shutdown closes the active screen and stops listening to the session.
func (a *App) Shutdown() {
	if a.current != nil {
		a.current.Close()
	}
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, a.forward(a.bodySize())
	case authEventMsg:
		return a, tea.Batch(a.handleAuthEvent(msg.event), a.waitEvent())
	case logoutMsg:
		if msg.err != nil {
			a.logger.Warn("logout failed", zap.Error(msg.err))
		}
		return a, nil
	case screen.NavigateMsg:
		return a, a.navigate(msg.Route, msg.Notice)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.Shutdown()
			return a, tea.Quit
		case "ctrl+t":
			return a, a.navigate(screen.RouteTyping, "")
		case "ctrl+d":
			return a, a.navigate(screen.RouteDashboard, "")
		case "ctrl+l":
			if !a.session.IsAuthenticated() {
				return a, a.navigate(screen.RouteLogin, "")
			}
			return a, nil
		case "ctrl+o":
			if a.session.IsAuthenticated() {
				return a, a.logout()
			}
			return a, nil
		}
	}
	return a, a.forward(msg)
}

func (a *App) forward(msg tea.Msg) tea.Cmd {
	if a.current == nil {
		return nil
	}
	next, cmd := a.current.Update(msg)
	a.current = next
	return cmd
}

func (a *App) logout() tea.Cmd {
	session := a.session
	return func() tea.Msg {
		return logoutMsg{err: session.Logout(context.Background())}
	}
}

func (a *App) handleAuthEvent(ev auth.Event) tea.Cmd {
	a.logger.Debug("auth event", zap.Stringer("event", ev), zap.String("route", string(a.route)))
	switch ev {
	case auth.EventExpired:
		return a.navigate(screen.RouteLogin, noticeExpired)
	case auth.EventLogout:
		if a.route == screen.RouteDashboard {
			return a.navigate(screen.RouteTyping, "")
		}
	}
	return nil
}

// resolve applies the route guards: the dashboard needs a session and the
// auth forms are pointless with one.
func (a *App) resolve(route screen.Route, notice string) (screen.Route, string) {
	authed := a.session.IsAuthenticated()
	switch route {
	case screen.RouteDashboard:
		if !authed {
			return screen.RouteLogin, noticeLoginDashboard
		}
	case screen.RouteLogin, screen.RouteSignup:
		if authed {
			return screen.RouteTyping, ""
		}
	}
	if _, ok := a.screens[route]; !ok {
		return screen.RouteTyping, notice
	}
	return route, notice
}

func (a *App) navigate(route screen.Route, notice string) tea.Cmd {
	route, notice = a.resolve(route, notice)
	if route == a.route && a.current != nil && notice == "" {
		return nil
	}
	factory, ok := a.screens[route]
	if !ok {
		a.logger.Error("no screen for route", zap.String("route", string(route)))
		return nil
	}
	if a.current != nil {
		a.current.Close()
	}
	a.logger.Debug("navigate", zap.String("from", string(a.route)), zap.String("to", string(route)))
	a.route = route
	a.current = factory()
	if ns, ok := a.current.(noticeSetter); ok && notice != "" {
		ns.SetNotice(notice)
	}
	cmds := []tea.Cmd{a.current.Init()}
	if a.width > 0 && a.height > 0 {
		cmds = append(cmds, a.forward(a.bodySize()))
	}
	return tea.Batch(cmds...)
}

func (a *App) bodySize() tea.WindowSizeMsg {
	h := a.height - 2
	if h < 1 {
		h = 1
	}
	return tea.WindowSizeMsg{Width: a.width, Height: h}
}

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 || a.height == 0 || a.current == nil {
		return ""
	}
	size := a.bodySize()
	header := a.renderHeader()
	body := a.current.View(size.Width, size.Height)
	footer := a.renderFooter()
	return header + "\n" + body + "\n" + footer
}

func (a *App) renderHeader() string {
	left := brandStyle.Render("typingfast") + headerStyle.Render(" · "+a.current.Title())
	right := headerStyle.Render("guest")
	if user, ok := a.session.CurrentUser(); ok {
		right = userStyle.Render(user.Username)
	}
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (a *App) globalHints() []screen.KeyHint {
	hints := []screen.KeyHint{{Key: "ctrl+t", Desc: "practice"}}
	if a.session.IsAuthenticated() {
		hints = append(hints, screen.KeyHint{Key: "ctrl+d", Desc: "dashboard"}, screen.KeyHint{Key: "ctrl+o", Desc: "log out"})
	} else {
		hints = append(hints, screen.KeyHint{Key: "ctrl+l", Desc: "log in"})
	}
	return append(hints, screen.KeyHint{Key: "ctrl+c", Desc: "quit"})
}

func (a *App) renderFooter() string {
	var hints []screen.KeyHint
	if p, ok := a.current.(screen.KeyHintProvider); ok {
		hints = append(hints, p.KeyHints()...)
	}
	hints = append(hints, a.globalHints()...)
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, hintKey.Render(h.Key)+" "+headerStyle.Render(h.Desc))
	}
	line := strings.Join(parts, "  ")
	if lipgloss.Width(line) > a.width {
		return lipgloss.NewStyle().MaxWidth(a.width).Render(line)
	}
	return line
}
