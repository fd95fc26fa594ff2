package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/typingfast/internal/typing"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes renders each cell according to its judged status. The
// untyped remainder of the word under the cursor is highlighted.
func buildStyledRunes(cells []typing.Cell) []styledRune {
	cursorIndex := -1
	for i, c := range cells {
		if c.Status == typing.Current {
			cursorIndex = i
			break
		}
	}
	words := findWords(cells)
	currentWord := wordForCursor(words, cursorIndex)

	out := make([]styledRune, 0, len(cells))
	for i, cell := range cells {
		displayed := cell.Char
		style := pendingStyle
		switch cell.Status {
		case typing.Correct:
			style = correctStyle
		case typing.Incorrect:
			style = incorrectStyle
			if cell.Char == ' ' {
				displayed = '•'
			}
		default:
			if cell.Char != ' ' && currentWord != nil && i >= currentWord.start && i < currentWord.end {
				style = currentWordStyle
			}
			if cell.Status == typing.Current {
				style = style.Underline(true)
			}
		}
		out = append(out, styledRune{
			s:       style.Render(string(displayed)),
			width:   runewidth.RuneWidth(displayed),
			isSpace: cell.Char == ' ',
		})
	}
	return out
}

type wordRange struct {
	start int
	end   int
}

func findWords(cells []typing.Cell) []wordRange {
	words := []wordRange{}
	start := -1
	for i, c := range cells {
		if c.Char == ' ' {
			if start != -1 {
				words = append(words, wordRange{start: start, end: i})
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		words = append(words, wordRange{start: start, end: len(cells)})
	}
	return words
}

func wordForCursor(words []wordRange, cursorIndex int) *wordRange {
	if len(words) == 0 || cursorIndex < 0 {
		return nil
	}
	for i, w := range words {
		if cursorIndex < w.end {
			return &words[i]
		}
	}
	return nil
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at the last space that fits in width,
// falling back to a hard break inside overlong words.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				// Keep the space on the broken line so it stays visible
				// when it was mistyped.
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx+1]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
