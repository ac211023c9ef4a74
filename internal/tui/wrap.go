package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ryotaka/kanasprint/internal/session"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildJudgmentRunes turns the three judgment spans into styled display
// runes: the matched prefix, the mismatched input span, and the untyped
// remainder. The cursor underlines the first untyped rune.
func buildJudgmentRunes(j session.Judgment, showCursor bool) []styledRune {
	var out []styledRune
	for _, r := range j.Correct {
		out = append(out, styleRune(r, correctStyle))
	}
	for _, r := range j.Wrong {
		displayed := r
		if r == ' ' {
			displayed = '•'
		}
		out = append(out, styleRune(displayed, incorrectStyle))
	}
	first := true
	for _, r := range j.Rest {
		style := pendingStyle
		if first && showCursor {
			style = cursorStyle
		}
		first = false
		out = append(out, styleRune(r, style))
	}
	return out
}

func styleRune(r rune, style lipgloss.Style) styledRune {
	return styledRune{
		s:       style.Render(string(r)),
		width:   runewidth.RuneWidth(r),
		isSpace: r == ' ',
	}
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

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
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				// CJK passages rarely contain spaces, so hard breaks at the
				// width boundary are the common case.
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
