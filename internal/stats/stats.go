// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/typingfast/internal/model"
)

const (
	charsPerWord = 5.0
	sparkChars   = " .:-=+*#%@"
)

// WPM returns words per minute for correct characters over elapsed time,
// using the five-characters-per-word convention. Zero elapsed time yields 0.
func WPM(correct int, elapsed time.Duration) float64 {
	if elapsed <= 0 || correct <= 0 {
		return 0
	}
	minutes := elapsed.Seconds() / 60.0
	return (float64(correct) / charsPerWord) / minutes
}

// Accuracy returns correct/judged as a percentage. Nothing judged is 100%.
func Accuracy(correct, judged int) float64 {
	if judged <= 0 {
		return 100
	}
	return float64(correct) / float64(judged) * 100
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// WPMTrend returns the history's WPM values oldest first, smoothed over window.
// History is expected newest first, as the backend returns it.
func WPMTrend(history []model.HistoryEntry, window int) []float64 {
	values := make([]float64, len(history))
	for i, entry := range history {
		values[len(history)-1-i] = entry.WPM
	}
	return MovingAverage(values, window)
}

// RenderSummary prints the dashboard report as plain text.
func RenderSummary(w io.Writer, report Report, loc *time.Location) error {
	p := &errWriter{w: w}
	p.printf("Welcome, %s!\n", report.Profile.Username)
	p.printf("Member since %s\n\n", FormatDate(report.Profile.CreatedAt.Time, loc))

	st := report.Stats
	p.println("Summary")
	p.printf("Tests: %d\n", st.TotalTests)
	p.printf("Best WPM: %.1f\n", st.BestWPM)
	p.printf("Avg WPM: %.1f\n", st.AverageWPM)
	p.printf("Best Accuracy: %.1f%%\n", st.BestAccuracy)
	p.printf("Avg Accuracy: %.1f%%\n", st.AverageAccuracy)
	p.printf("Total Time: %s\n", FormatDuration(st.TotalTimeSeconds))
	p.printf("Characters: %d\n", st.TotalCharactersTyped)
	p.printf("Errors: %d\n", st.TotalErrors)
	p.println("")
	p.println("Recent Performance (last 10)")
	p.printf("Avg WPM: %.1f\n", st.RecentAverageWPM)
	p.printf("Avg Accuracy: %.1f%%\n", st.RecentAverageAccuracy)
	if trend := WPMTrend(report.History, 3); len(trend) > 1 {
		p.printf("Trend: %s\n", Sparkline(trend))
	}
	p.println("")
	if p.err != nil {
		return p.err
	}
	return RenderHistory(w, RecentHistory(report.History), loc)
}

// RenderHistory prints history entries as an aligned table.
func RenderHistory(w io.Writer, history []model.HistoryEntry, loc *time.Location) error {
	if len(history) == 0 {
		_, err := fmt.Fprintln(w, "No tests yet. Take your first test!")
		return err
	}
	tbl := newTextTable(left("Date"), right("WPM"), right("Accuracy"), right("Errors"), right("Duration"))
	for _, entry := range history {
		tbl.add(HistoryRow(entry, loc)...)
	}
	p := &errWriter{w: w}
	p.println("Typing History")
	tbl.writeTo(p)
	return p.err
}

// HistoryRow formats one history entry as table cells.
func HistoryRow(entry model.HistoryEntry, loc *time.Location) []string {
	return []string{
		FormatDate(entry.CreatedAt.Time, loc),
		fmt.Sprintf("%.1f", entry.WPM),
		fmt.Sprintf("%.1f%%", entry.Accuracy),
		fmt.Sprintf("%d", entry.Errors),
		FormatDuration(entry.Duration),
	}
}

// RenderLocalResults prints the local result log, newest first.
func RenderLocalResults(w io.Writer, results []model.LocalResult, loc *time.Location) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No local results yet.")
		return err
	}
	if loc == nil {
		loc = time.Local
	}
	tbl := newTextTable(left("Finished"), right("Words"), right("WPM"), right("Accuracy"),
		right("Errors"), right("Duration"), left("Scored"))
	for _, r := range results {
		tbl.add(
			r.FinishedAt.In(loc).Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", r.Words),
			fmt.Sprintf("%.1f", r.Result.WPM),
			fmt.Sprintf("%.1f%%", r.Result.Accuracy),
			fmt.Sprintf("%d", r.Result.Errors),
			FormatDuration(r.DurationS),
			string(r.Result.Source),
		)
	}
	p := &errWriter{w: w}
	tbl.writeTo(p)
	return p.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (p *errWriter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *errWriter) println(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}
