package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextTableAlignsColumns(t *testing.T) {
	tbl := newTextTable(left("Date"), right("WPM"), right("Errors"))
	tbl.add("Jan 2, 2024", "72.4", "12")
	tbl.add("Dec 31, 2023", "8.0", "3")

	assert.Equal(t, []string{
		"Date          WPM Errors",
		"Jan 2, 2024  72.4     12",
		"Dec 31, 2023  8.0      3",
	}, tbl.lines())
}

func TestTextTableTrimsTrailingPadding(t *testing.T) {
	tbl := newTextTable(left("Name"), left("Note"))
	tbl.add("a", "")
	tbl.add("bb", "x")
	assert.Equal(t, "a", tbl.lines()[1])
}

func TestTextTableNormalizesRowLength(t *testing.T) {
	tbl := newTextTable(left("A"), right("B"))
	tbl.add("x")
	tbl.add("y", "1", "dropped")
	assert.Equal(t, []string{"A B", "x", "y 1"}, tbl.lines())
}

func TestTextTableWideRunes(t *testing.T) {
	tbl := newTextTable(left("User"), right("WPM"))
	tbl.add("日本", "80.0")
	tbl.add("bob", "9.5")
	lines := tbl.lines()
	assert.Equal(t, "日本 80.0", lines[1])
	assert.Equal(t, "bob   9.5", lines[2])
}
