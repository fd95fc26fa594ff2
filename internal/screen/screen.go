// Package screen defines the contract between the app router and its screens.
package screen

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Route names a top-level screen.
type Route string

const (
	RouteLogin     Route = "/login"
	RouteSignup    Route = "/signup"
	RouteTyping    Route = "/typing"
	RouteDashboard Route = "/dashboard"
)

// Screen is one page of the app.
type Screen interface {
	// Init returns an initial command when the screen is first shown.
	Init() tea.Cmd

	// Update handles messages and returns the updated screen and command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content, excluding header and footer.
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string

	// Close releases the screen's background work. Messages arriving after
	// Close must not change what the user sees.
	Close()
}

// KeyHint is one entry in the footer help line.
type KeyHint struct {
	Key  string
	Desc string
}

// KeyHintProvider is an optional interface for screens with custom hints.
type KeyHintProvider interface {
	KeyHints() []KeyHint
}

// NavigateMsg asks the app to switch to another route.
type NavigateMsg struct {
	Route  Route
	Notice string
}

// Navigate returns a command emitting NavigateMsg.
func Navigate(route Route) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Route: route}
	}
}

// NavigateWithNotice is Navigate with a one-line message shown on arrival.
func NavigateWithNotice(route Route, notice string) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Route: route, Notice: notice}
	}
}
