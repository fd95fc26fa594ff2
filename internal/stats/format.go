package stats

import (
	"fmt"
	"time"

	"github.com/verte-zerg/typingfast/internal/model"
)

// HistoryDisplayLimit caps the history rows shown on the dashboard.
const HistoryDisplayLimit = 20

// FormatDuration renders seconds as "Xm Ys", or "Xs" under one minute.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// FormatClock renders seconds as "m:ss" for the live timer.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatDate renders a short month/day/year date, e.g. "Jan 2, 2006".
// A zero time renders as "N/A". A nil location means local time.
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "N/A"
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("Jan 2, 2006")
}

// RecentHistory returns at most HistoryDisplayLimit entries from the front
// of the history, which the backend orders newest first.
func RecentHistory(history []model.HistoryEntry) []model.HistoryEntry {
	if len(history) <= HistoryDisplayLimit {
		return history
	}
	return history[:HistoryDisplayLimit]
}
