package mockapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name      string
		original  string
		typed     string
		duration  int
		errors    int
		corrected int
		accuracy  float64
		wpm       float64
	}{
		{"exact", "cat", "cat", 1, 0, 3, 100, 36},
		{"one wrong", "cat", "cxt", 1, 1, 2, 2.0 / 3 * 100, 24},
		{"short", "hello", "hel", 60, 2, 1, 1.0 / 3 * 100, 0.2},
		{"long", "hi", "hiya", 60, 2, 2, 50, 0.4},
		{"empty typed", "hi", "", 10, 2, 0, 0, 0},
		{"zero duration", "cat", "cat", 0, 0, 3, 100, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Score(tc.original, tc.typed, tc.duration)
			assert.Equal(t, tc.errors, res.Errors)
			assert.Equal(t, tc.corrected, res.CorrectedChars)
			assert.InDelta(t, tc.accuracy, res.Accuracy, 1e-9)
			assert.InDelta(t, tc.wpm, res.WPM, 1e-9)
		})
	}
}

func TestPaginate(t *testing.T) {
	all := history(7)
	p := paginate(all, 0, 3)
	assert.Len(t, p.Content, 3)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.First)
	assert.False(t, p.Last)

	p = paginate(all, 2, 3)
	assert.Len(t, p.Content, 1)
	assert.True(t, p.Last)

	p = paginate(all, 9, 3)
	assert.Empty(t, p.Content)
	assert.Equal(t, 7, p.TotalElements)

	p = paginate(nil, 0, 10)
	assert.Empty(t, p.Content)
	assert.True(t, p.First)
	assert.True(t, p.Last)
}
