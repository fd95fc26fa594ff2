// Package typing implements the keystroke state machine of a practice
// session and the metrics derived from it.
package typing

import (
	"time"
	"unicode"
)

// Status is the judgement state of a single character cell.
type Status int

const (
	Pending Status = iota
	Current
	Correct
	Incorrect
)

func (s Status) String() string {
	switch s {
	case Current:
		return "current"
	case Correct:
		return "correct"
	case Incorrect:
		return "incorrect"
	default:
		return "pending"
	}
}

// Cell is one character of the practice text.
type Cell struct {
	Char   rune
	Status Status
}

// State is the lifecycle phase of a session.
type State int

const (
	Idle State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "idle"
	}
}

// Step reports what a key event did to the session.
type Step int

const (
	// Ignored means the event did not change the session.
	Ignored Step = iota
	Advanced
	Retreated
	// Completed means the event judged the last cell and finished the session.
	Completed
)

// Session is a single pass over a practice text.
type Session struct {
	text      []rune
	cells     []Cell
	typed     []rune
	cursor    int
	started   bool
	finished  bool
	startedAt time.Time
	endedAt   time.Time
}

// New creates an idle session for text. An empty text yields a session
// that never starts.
func New(text string) *Session {
	runes := []rune(text)
	cells := make([]Cell, len(runes))
	for i, r := range runes {
		cells[i] = Cell{Char: r, Status: Pending}
	}
	if len(cells) > 0 {
		cells[0].Status = Current
	}
	return &Session{
		text:  runes,
		cells: cells,
		typed: make([]rune, 0, len(runes)),
	}
}

// Type feeds one printable character at time now.
func (s *Session) Type(r rune, now time.Time) Step {
	if s.finished || s.cursor >= len(s.cells) {
		return Ignored
	}
	if !unicode.IsPrint(r) {
		return Ignored
	}
	if !s.started {
		s.started = true
		s.startedAt = now
	}

	if r == s.cells[s.cursor].Char {
		s.cells[s.cursor].Status = Correct
	} else {
		s.cells[s.cursor].Status = Incorrect
	}
	s.typed = append(s.typed, r)
	s.cursor++

	if s.cursor == len(s.cells) {
		s.finished = true
		s.endedAt = now
		return Completed
	}
	s.cells[s.cursor].Status = Current
	return Advanced
}

// Backspace steps the cursor back one cell. The cell it lands on becomes
// current again and is re-judged by the next Type.
func (s *Session) Backspace() Step {
	if s.finished || s.cursor == 0 {
		return Ignored
	}
	s.cursor--
	s.typed = s.typed[:s.cursor]
	s.cells[s.cursor].Status = Current
	for i := s.cursor + 1; i < len(s.cells); i++ {
		s.cells[i].Status = Pending
	}
	return Retreated
}

// State returns the lifecycle phase.
func (s *Session) State() State {
	switch {
	case s.finished:
		return Finished
	case s.started:
		return Running
	default:
		return Idle
	}
}

// Cursor is the index of the next cell to judge.
func (s *Session) Cursor() int {
	return s.cursor
}

// Len is the number of cells.
func (s *Session) Len() int {
	return len(s.cells)
}

// Cells returns a copy of the cells.
func (s *Session) Cells() []Cell {
	out := make([]Cell, len(s.cells))
	copy(out, s.cells)
	return out
}

// Text returns the practice text.
func (s *Session) Text() string {
	return string(s.text)
}

// Typed returns the accepted input, one rune per judged cell.
func (s *Session) Typed() string {
	return string(s.typed)
}

// StartedAt is the time of the first accepted key, zero while idle.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Elapsed is the running time at now, frozen once the session finishes.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if !s.started {
		return 0
	}
	end := now
	if s.finished {
		end = s.endedAt
	}
	if end.Before(s.startedAt) {
		return 0
	}
	return end.Sub(s.startedAt)
}

// Progress is the fraction of cells judged, in [0,1].
func (s *Session) Progress() float64 {
	if len(s.cells) == 0 {
		return 0
	}
	return float64(s.cursor) / float64(len(s.cells))
}

// counts tallies judged cells. Only cells before the cursor can be judged.
func (s *Session) counts() (correct, incorrect int) {
	for _, c := range s.cells[:s.cursor] {
		switch c.Status {
		case Correct:
			correct++
		case Incorrect:
			incorrect++
		}
	}
	return correct, incorrect
}
