package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// column describes one column of a plain-text table.
type column struct {
	title string
	right bool
}

func left(title string) column  { return column{title: title} }
func right(title string) column { return column{title: title, right: true} }

// textTable lays out rows under fixed columns, padding by display width so
// wide runes in usernames or dates keep the columns straight.
type textTable struct {
	cols []column
	rows [][]string
}

func newTextTable(cols ...column) *textTable {
	return &textTable{cols: cols}
}

// add appends a row. Missing cells render empty; extra cells are dropped.
func (t *textTable) add(cells ...string) {
	row := make([]string, len(t.cols))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

func (t *textTable) widths() []int {
	widths := make([]int, len(t.cols))
	for i, col := range t.cols {
		widths[i] = runewidth.StringWidth(col.title)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	return widths
}

// lines renders the header followed by every row, trailing blanks trimmed.
func (t *textTable) lines() []string {
	if len(t.cols) == 0 {
		return nil
	}
	widths := t.widths()
	header := make([]string, len(t.cols))
	for i, col := range t.cols {
		header[i] = col.title
	}
	out := make([]string, 0, len(t.rows)+1)
	out = append(out, t.line(header, widths))
	for _, row := range t.rows {
		out = append(out, t.line(row, widths))
	}
	return out
}

func (t *textTable) line(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(' ')
		}
		pad := strings.Repeat(" ", max(widths[i]-runewidth.StringWidth(cell), 0))
		if t.cols[i].right {
			b.WriteString(pad + cell)
		} else {
			b.WriteString(cell + pad)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func (t *textTable) writeTo(p *errWriter) {
	for _, line := range t.lines() {
		p.println(line)
	}
}
