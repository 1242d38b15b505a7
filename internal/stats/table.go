// Package stats contains text reporting of statistics records and history.
package stats

import (
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuistat/internal/export"
)

const columnGap = "  "

// alignLines lays lines out as two columns: labels padded on the right,
// values right-aligned. Widths are terminal cells, so accented and wide
// runes line up.
func alignLines(lines []export.Line) []string {
	labelWidth, valueWidth := 0, 0
	for _, line := range lines {
		labelWidth = max(labelWidth, runewidth.StringWidth(line.Label))
		valueWidth = max(valueWidth, runewidth.StringWidth(line.Value))
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = runewidth.FillRight(line.Label, labelWidth) + columnGap + runewidth.FillLeft(line.Value, valueWidth)
	}
	return out
}
