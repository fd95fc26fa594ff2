package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/typingfast/internal/model"
)

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{
		0:    "0s",
		59:   "59s",
		60:   "1m 0s",
		61:   "1m 1s",
		3725: "62m 5s",
		-3:   "0s",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatDuration(in), "seconds=%d", in)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "0:00", FormatClock(0))
	assert.Equal(t, "0:09", FormatClock(9))
	assert.Equal(t, "2:05", FormatClock(125))
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2023, 11, 3, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "Nov 3, 2023", FormatDate(ts, time.UTC))
	assert.Equal(t, "N/A", FormatDate(time.Time{}, time.UTC))
}

func TestRecentHistoryCaps(t *testing.T) {
	history := make([]model.HistoryEntry, 35)
	for i := range history {
		history[i].ID = int64(i)
	}
	recent := RecentHistory(history)
	assert.Len(t, recent, HistoryDisplayLimit)
	assert.Equal(t, int64(0), recent[0].ID)
	assert.Len(t, RecentHistory(history[:5]), 5)
}
