package chart

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuistat/internal/model"
)

const columnGap = 3

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	outlierStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// RenderText draws charts for a terminal of the given width, two side by
// side when exactly two are shown and stacked otherwise.
func RenderText(charts []Chart, width int) string {
	if len(charts) == 0 {
		return ""
	}
	if width <= 0 {
		width = TerminalWidth()
	}
	cols := Columns(len(charts))
	cellWidth := width
	if cols == 2 {
		cellWidth = (width - columnGap) / 2
	}

	blocks := make([]string, 0, len(charts))
	for _, c := range charts {
		block := renderBlock(c, cellWidth)
		blocks = append(blocks, lipgloss.NewStyle().Width(cellWidth).Render(block))
	}
	if cols == 2 {
		return lipgloss.JoinHorizontal(lipgloss.Top, blocks[0], strings.Repeat(" ", columnGap), blocks[1])
	}
	spaced := make([]string, 0, len(blocks)*2)
	for i, block := range blocks {
		if i > 0 {
			spaced = append(spaced, "")
		}
		spaced = append(spaced, block)
	}
	return lipgloss.JoinVertical(lipgloss.Left, spaced...)
}

func renderBlock(c Chart, width int) string {
	lines := []string{titleStyle.Render(c.Title)}
	switch c.Kind {
	case model.ChartHistogram:
		lines = append(lines, histogramLines(c.Bins, width)...)
	case model.ChartBoxplot:
		if c.Box != nil {
			lines = append(lines, boxLines(*c.Box, width)...)
		}
	default:
		values := make([]float64, len(c.Points))
		for i, p := range c.Points {
			values[i] = p.Y
		}
		lines = append(lines, plotLine(values, width, defaultPlotHeight)...)
		if len(c.Points) > 0 {
			lines = append(lines, fmt.Sprintf("x = 1..%d", len(c.Points)))
		}
	}
	return strings.Join(lines, "\n")
}

func histogramLines(bins []Bin, width int) []string {
	if len(bins) == 0 {
		return nil
	}
	labels := make([]string, len(bins))
	labelWidth := 0
	maxCount := 0
	for i, b := range bins {
		labels[i] = fmt.Sprintf("%s – %s", formatTick(b.Low), formatTick(b.High))
		if w := utf8.RuneCountInString(labels[i]); w > labelWidth {
			labelWidth = w
		}
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	countWidth := len(fmt.Sprint(maxCount))
	barWidth := width - labelWidth - countWidth - len(axisSeparator) - 1
	if barWidth < minPlotWidth {
		barWidth = minPlotWidth
	}

	lines := make([]string, 0, len(bins))
	for i, b := range bins {
		n := 0
		if maxCount > 0 {
			n = int(math.Round(float64(b.Count) / float64(maxCount) * float64(barWidth)))
		}
		if b.Count > 0 && n == 0 {
			n = 1
		}
		pad := labelWidth - utf8.RuneCountInString(labels[i])
		lines = append(lines, fmt.Sprintf("%s%s%s%s %d",
			strings.Repeat(" ", pad), labels[i], axisSeparator, strings.Repeat("█", n), b.Count))
	}
	return lines
}

func boxLines(b Box, width int) []string {
	low, high := b.LowWhisker, b.HighWhisker
	for _, v := range b.Outliers {
		low = math.Min(low, v)
		high = math.Max(high, v)
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}
	half := high/2 - low/2
	pos := func(v float64) int {
		if half == 0 {
			return width / 2
		}
		p := int(math.Round((v/2 - low/2) / half * float64(width-1)))
		if p < 0 {
			return 0
		}
		if p >= width {
			return width - 1
		}
		return p
	}

	row := []rune(strings.Repeat(" ", width))
	for x := pos(b.LowWhisker); x <= pos(b.HighWhisker); x++ {
		row[x] = '─'
	}
	for x := pos(b.Q1); x <= pos(b.Q3); x++ {
		row[x] = '█'
	}
	row[pos(b.LowWhisker)] = '├'
	row[pos(b.HighWhisker)] = '┤'
	row[pos(b.Median)] = '┃'

	marks := make(map[int]bool, len(b.Outliers))
	for _, v := range b.Outliers {
		marks[pos(v)] = true
	}
	var plot strings.Builder
	for x, r := range row {
		if marks[x] {
			plot.WriteString(outlierStyle.Render("•"))
			continue
		}
		plot.WriteRune(r)
	}

	summary := fmt.Sprintf("min %s · Q1 %s · méd %s · Q3 %s · max %s",
		formatTick(b.LowWhisker), formatTick(b.Q1), formatTick(b.Median), formatTick(b.Q3), formatTick(b.HighWhisker))
	lines := []string{plot.String(), summary}
	if len(b.Outliers) > 0 {
		parts := make([]string, len(b.Outliers))
		for i, v := range b.Outliers {
			parts[i] = model.FormatNumber(v)
		}
		lines = append(lines, "aberrantes : "+strings.Join(parts, ", "))
	}
	return lines
}
