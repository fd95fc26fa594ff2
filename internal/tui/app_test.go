package tui

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typingfast/internal/auth"
	"github.com/verte-zerg/typingfast/internal/model"
	"github.com/verte-zerg/typingfast/internal/screen"
)

type fakeSession struct {
	mu     sync.Mutex
	authed bool
	subs   []func(auth.Event)
}

func (f *fakeSession) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authed
}

func (f *fakeSession) CurrentUser() (model.User, bool) {
	if f.IsAuthenticated() {
		return model.User{ID: 1, Username: "ada"}, true
	}
	return model.User{}, false
}

func (f *fakeSession) Logout(context.Context) error {
	f.set(false, auth.EventLogout)
	return nil
}

func (f *fakeSession) Subscribe(fn func(auth.Event)) func() {
	f.subs = append(f.subs, fn)
	return func() {}
}

func (f *fakeSession) set(authed bool, ev auth.Event) {
	f.mu.Lock()
	f.authed = authed
	f.mu.Unlock()
	for _, fn := range f.subs {
		fn(ev)
	}
}

type stubScreen struct {
	title  string
	closed bool
	notice string
	size   tea.WindowSizeMsg
}

func (s *stubScreen) Init() tea.Cmd { return nil }
func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		s.size = size
	}
	return s, nil
}
func (s *stubScreen) View(int, int) string { return s.title + " body" }
func (s *stubScreen) Title() string        { return s.title }
func (s *stubScreen) Close()               { s.closed = true }
func (s *stubScreen) SetNotice(n string)   { s.notice = n }

type appFixture struct {
	app     *App
	session *fakeSession
	built   map[screen.Route][]*stubScreen
}

func newAppFixture(t *testing.T, authed bool, start screen.Route) *appFixture {
	t.Helper()
	f := &appFixture{session: &fakeSession{authed: authed}, built: map[screen.Route][]*stubScreen{}}
	factories := map[screen.Route]ScreenFactory{}
	for _, r := range []screen.Route{screen.RouteLogin, screen.RouteSignup, screen.RouteTyping, screen.RouteDashboard} {
		route := r
		factories[route] = func() screen.Screen {
			s := &stubScreen{title: string(route)}
			f.built[route] = append(f.built[route], s)
			return s
		}
	}
	f.app = NewApp(f.session, factories, start, nil)
	t.Cleanup(f.app.Shutdown)
	f.app.navigate(f.app.start, "")
	return f
}

func (f *appFixture) last(route screen.Route) *stubScreen {
	list := f.built[route]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

// pump delivers a pending auth event through the app's event channel.
func (f *appFixture) pump(t *testing.T) {
	t.Helper()
	msg := f.app.waitEvent()()
	require.IsType(t, authEventMsg{}, msg)
	f.app.Update(msg)
}

func TestAppStartsOnRoute(t *testing.T) {
	f := newAppFixture(t, false, screen.RouteTyping)
	assert.Equal(t, screen.RouteTyping, f.app.Route())
	require.NotNil(t, f.last(screen.RouteTyping))
}

func TestDashboardRequiresAuth(t *testing.T) {
	f := newAppFixture(t, false, screen.RouteDashboard)
	assert.Equal(t, screen.RouteLogin, f.app.Route())
	assert.Equal(t, noticeLoginDashboard, f.last(screen.RouteLogin).notice)
	assert.Empty(t, f.built[screen.RouteDashboard])
}

func TestAuthFormsRedirectWhenSignedIn(t *testing.T) {
	f := newAppFixture(t, true, screen.RouteSignup)
	assert.Equal(t, screen.RouteTyping, f.app.Route())
}

func TestNavigateClosesPreviousScreen(t *testing.T) {
	f := newAppFixture(t, true, screen.RouteTyping)
	typingScreen := f.last(screen.RouteTyping)
	f.app.Update(screen.NavigateMsg{Route: screen.RouteDashboard})
	assert.True(t, typingScreen.closed)
	assert.Equal(t, screen.RouteDashboard, f.app.Route())

	f.app.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Len(t, f.built[screen.RouteDashboard], 1, "same route is a no-op")
}

func TestExpiredSessionRedirectsToLogin(t *testing.T) {
	f := newAppFixture(t, true, screen.RouteDashboard)
	f.session.set(false, auth.EventExpired)
	f.pump(t)
	assert.Equal(t, screen.RouteLogin, f.app.Route())
	assert.Equal(t, noticeExpired, f.last(screen.RouteLogin).notice)
	assert.True(t, f.last(screen.RouteDashboard).closed)
}

func TestLogoutLeavesDashboard(t *testing.T) {
	f := newAppFixture(t, true, screen.RouteDashboard)
	_, cmd := f.app.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	require.NotNil(t, cmd)
	f.app.Update(cmd())
	f.pump(t)
	assert.Equal(t, screen.RouteTyping, f.app.Route())
}

func TestWindowSizeForwardedWithoutChrome(t *testing.T) {
	f := newAppFixture(t, false, screen.RouteTyping)
	f.app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, tea.WindowSizeMsg{Width: 100, Height: 28}, f.last(screen.RouteTyping).size)

	f.app.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, tea.WindowSizeMsg{Width: 100, Height: 28}, f.last(screen.RouteLogin).size)
}

func TestAppViewShowsUserAndHints(t *testing.T) {
	f := newAppFixture(t, true, screen.RouteTyping)
	f.app.Update(tea.WindowSizeMsg{Width: 120, Height: 10})
	view := f.app.View()
	assert.Contains(t, view, "typingfast")
	assert.Contains(t, view, "ada")
	assert.Contains(t, view, "log out")

	f.session.set(false, auth.EventLogout)
	f.pump(t)
	view = f.app.View()
	assert.Contains(t, view, "guest")
	assert.Contains(t, view, "log in")
}

func TestCtrlCQuits(t *testing.T) {
	f := newAppFixture(t, false, screen.RouteTyping)
	_, cmd := f.app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, f.last(screen.RouteTyping).closed)
}
