package typing

import (
	"time"

	"github.com/verte-zerg/typingfast/internal/stats"
)

// Metrics is the live view of a session. It is derived on demand and never
// stored.
type Metrics struct {
	WPM      float64
	Accuracy float64
	Errors   int
	Elapsed  time.Duration
}

// Metrics computes live statistics at time now.
func (s *Session) Metrics(now time.Time) Metrics {
	correct, incorrect := s.counts()
	elapsed := s.Elapsed(now)
	m := Metrics{
		Accuracy: stats.Accuracy(correct, s.cursor),
		Errors:   incorrect,
		Elapsed:  elapsed,
	}
	if s.started {
		m.WPM = stats.WPM(correct, elapsed)
	}
	return m
}
