package statsui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/typingfast/internal/model"
	"github.com/verte-zerg/typingfast/internal/screen"
	"github.com/verte-zerg/typingfast/internal/stats"
)

type fakeSource struct {
	profile    model.Profile
	stats      model.UserStats
	history    []model.HistoryEntry
	historyErr error
	calls      int
}

func (f *fakeSource) Profile(context.Context) (model.Profile, error) {
	f.calls++
	return f.profile, nil
}

func (f *fakeSource) Stats(context.Context) (model.UserStats, error) {
	return f.stats, nil
}

func (f *fakeSource) AllHistory(context.Context) ([]model.HistoryEntry, error) {
	return f.history, f.historyErr
}

func sampleSource() *fakeSource {
	created := model.Timestamp{Time: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)}
	return &fakeSource{
		profile: model.Profile{Username: "ada", CreatedAt: created},
		stats: model.UserStats{
			BestWPM:              71.25,
			AverageWPM:           60,
			BestAccuracy:         100,
			AverageAccuracy:      95.5,
			TotalTests:           3,
			TotalTimeSeconds:     125,
			TotalCharactersTyped: 12345,
			TotalErrors:          7,
			RecentAverageWPM:     60,
		},
		history: []model.HistoryEntry{
			{ID: 3, WPM: 70, Accuracy: 100, Duration: 40, CreatedAt: created},
			{ID: 2, WPM: 60, Accuracy: 96, Errors: 2, Duration: 45, CreatedAt: created},
			{ID: 1, WPM: 50, Accuracy: 90, Errors: 5, Duration: 40, CreatedAt: created},
		},
	}
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func loaded(t *testing.T, src *fakeSource) *Model {
	t.Helper()
	m := NewModel(Deps{Source: src, Location: time.UTC})
	t.Cleanup(m.Close)
	for _, msg := range collect(m.Init()) {
		m.Update(msg)
	}
	require.False(t, m.loading)
	return m
}

func TestDashboardRendersOverview(t *testing.T) {
	m := loaded(t, sampleSource())
	view := m.View(120, 40)
	for _, want := range []string{"Welcome, ada!", "Jan 2, 2024", "71.2", "95.5%", "2m 5s", "12,345", "Recent Performance", "WPM Trend"} {
		assert.Contains(t, view, want)
	}
}

func TestDashboardHistoryTab(t *testing.T) {
	m := loaded(t, sampleSource())
	m.View(120, 40)
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, tabHistory, m.activeTab)
	view := m.View(120, 40)
	assert.Contains(t, view, "Accuracy")
	assert.Contains(t, view, "96.0%")
	assert.Len(t, m.historyTable.Rows(), 3)
}

func TestDashboardAnyFailureShowsError(t *testing.T) {
	src := sampleSource()
	src.historyErr = errors.New("boom")
	m := loaded(t, src)
	assert.Equal(t, LoadErrorMessage, m.errMsg)
	view := m.View(100, 20)
	assert.Contains(t, view, LoadErrorMessage)
	assert.NotContains(t, view, "Welcome")

	src.historyErr = nil
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	require.NotNil(t, cmd)
	for _, msg := range collect(cmd) {
		m.Update(msg)
	}
	assert.Empty(t, m.errMsg)
	assert.Equal(t, "ada", m.Report().Profile.Username)
}

func TestDashboardDropsStaleReport(t *testing.T) {
	m := loaded(t, sampleSource())
	m.Update(reportMsg{id: m.reqID - 1, err: errors.New("late")})
	assert.Empty(t, m.errMsg)

	m.Close()
	m.Update(reportMsg{id: m.reqID, err: errors.New("closed")})
	assert.Empty(t, m.errMsg)
}

func TestDashboardEmptyHistory(t *testing.T) {
	src := sampleSource()
	src.history = nil
	m := loaded(t, src)
	view := m.View(120, 40)
	assert.Contains(t, view, "No typing history yet")
	assert.NotContains(t, view, "WPM Trend")
}

func TestDashboardEnterStartsTyping(t *testing.T) {
	m := loaded(t, sampleSource())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, screen.NavigateMsg{Route: screen.RouteTyping}, cmd())
}

func TestHistoryRowsCapped(t *testing.T) {
	history := make([]model.HistoryEntry, stats.HistoryDisplayLimit+5)
	rows := historyRows(stats.RecentHistory(history), time.UTC)
	assert.Len(t, rows, stats.HistoryDisplayLimit)
}

func TestFitLines(t *testing.T) {
	out := fitLines("a\nb\nc", 3, 2)
	assert.Equal(t, []string{"a  ", "b  "}, strings.Split(out, "\n"))
	assert.Equal(t, "abc...", truncateLine("abcdefghij", 6))
}
