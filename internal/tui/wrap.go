package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
	isBreak bool
}

// buildStyledRunes styles text token by token, marking invalid tokens.
func buildStyledRunes(text string, invalid []string) []styledRune {
	bad := make(map[string]bool, len(invalid))
	for _, tok := range invalid {
		bad[tok] = true
	}

	tokens := strings.Split(text, ",")
	out := make([]styledRune, 0, len(text))
	for i, tok := range tokens {
		trimmed := strings.TrimSpace(tok)
		invalidTok := bad[trimmed]
		style := validTokenStyle
		if invalidTok {
			style = invalidTokenStyle
		}
		for _, r := range tok {
			displayed := r
			// A blank rejected token would be invisible otherwise.
			if r == ' ' && invalidTok && trimmed == "" {
				displayed = '•'
			}
			out = append(out, styledRune{
				s:       style.Render(string(displayed)),
				width:   runewidth.RuneWidth(displayed),
				isSpace: r == ' ',
				isBreak: r == ' ',
			})
		}
		if i < len(tokens)-1 {
			out = append(out, styledRune{
				s:       separatorStyle.Render(","),
				width:   1,
				isBreak: true,
			})
		}
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes wraps at the last space or comma that fits. Spaces at a
// break are dropped; commas stay at the end of the line.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastBreakIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastBreakIdx >= 0 {
				keep := line[:lastBreakIdx]
				if !line[lastBreakIdx].isSpace {
					keep = line[:lastBreakIdx+1]
				}
				out.WriteString(renderStyledRunes(keep))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastBreakIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastBreakIdx = lastBreakIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastBreakIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isBreak {
			lastBreakIdx = len(line) - 1
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

func lastBreakIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isBreak {
			return i
		}
	}
	return -1
}
