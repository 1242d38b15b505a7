package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/verte-zerg/tuistat/internal/model"
)

// Default PNG cell size in pixels.
const (
	DefaultPNGWidth  = 640
	DefaultPNGHeight = 360
)

var (
	histogramColor = drawing.ColorFromHex("87ceeb")
	trendColor     = drawing.ColorFromHex("ffa500")
	boxColor       = drawing.ColorFromHex("800080")
	outlierColor   = drawing.ColorFromHex("ff0000")
	linearColor    = drawing.ColorFromHex("008080")
)

var background = gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}

// RenderPNG draws each chart into a cellWidth x cellHeight image and lays
// them out in the same grid as RenderText.
func RenderPNG(w io.Writer, charts []Chart, cellWidth, cellHeight int) error {
	if len(charts) == 0 {
		return fmt.Errorf("no charts to render")
	}
	if cellWidth <= 0 {
		cellWidth = DefaultPNGWidth
	}
	if cellHeight <= 0 {
		cellHeight = DefaultPNGHeight
	}

	cols := Columns(len(charts))
	rows := (len(charts) + cols - 1) / cols
	canvas := image.NewRGBA(image.Rect(0, 0, cols*cellWidth, rows*cellHeight))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for i, c := range charts {
		var buf bytes.Buffer
		if err := renderOne(&buf, c, cellWidth, cellHeight); err != nil {
			return fmt.Errorf("failed to render %s: %w", c.Kind, err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", c.Kind, err)
		}
		origin := image.Pt((i%cols)*cellWidth, (i/cols)*cellHeight)
		draw.Draw(canvas, image.Rectangle{Min: origin, Max: origin.Add(img.Bounds().Size())}, img, img.Bounds().Min, draw.Over)
	}

	if err := png.Encode(w, canvas); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func renderOne(w io.Writer, c Chart, width, height int) error {
	switch c.Kind {
	case model.ChartHistogram:
		return histogramChart(c, width, height).Render(gochart.PNG, w)
	case model.ChartBoxplot:
		return boxChart(c, width, height).Render(gochart.PNG, w)
	default:
		color := trendColor
		if c.Kind == model.ChartLinear {
			color = linearColor
		}
		return lineChart(c, color, width, height).Render(gochart.PNG, w)
	}
}

func histogramChart(c Chart, width, height int) gochart.BarChart {
	bars := make([]gochart.Value, len(c.Bins))
	maxCount := 1
	for i, b := range c.Bins {
		bars[i] = gochart.Value{
			Value: float64(b.Count),
			Label: formatTick(b.Low),
			Style: gochart.Style{FillColor: histogramColor, StrokeColor: histogramColor},
		}
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	usable := width - background.Padding.Left - background.Padding.Right - 60
	barWidth := usable / (len(bars) + 1)
	if barWidth < 4 {
		barWidth = 4
	}
	return gochart.BarChart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		Background: background,
		BarWidth:   barWidth,
		BarSpacing: barWidth / 4,
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: float64(maxCount)},
		},
		Bars: bars,
	}
}

func lineChart(c Chart, color drawing.Color, width, height int) gochart.Chart {
	xs := make([]float64, len(c.Points))
	ys := make([]float64, len(c.Points))
	for i, p := range c.Points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	low, high := paddedRange(ys)
	return gochart.Chart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		Background: background,
		XAxis: gochart.XAxis{
			Range: &gochart.ContinuousRange{Min: 0.5, Max: float64(len(xs)) + 0.5},
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: low, Max: high},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    c.Title,
				XValues: xs,
				YValues: ys,
				Style: gochart.Style{
					StrokeColor: color,
					StrokeWidth: 2,
					DotColor:    color,
					DotWidth:    3,
				},
			},
		},
	}
}

func boxChart(c Chart, width, height int) gochart.Chart {
	b := Box{}
	if c.Box != nil {
		b = *c.Box
	}
	all := append([]float64{b.LowWhisker, b.HighWhisker}, b.Outliers...)
	low, high := paddedRange(all)

	line := func(name string, xs, ys []float64) gochart.ContinuousSeries {
		return gochart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style:   gochart.Style{StrokeColor: boxColor, StrokeWidth: 2},
		}
	}
	series := []gochart.Series{
		line("boîte", []float64{0.7, 1.3, 1.3, 0.7, 0.7}, []float64{b.Q1, b.Q1, b.Q3, b.Q3, b.Q1}),
		line("médiane", []float64{0.7, 1.3}, []float64{b.Median, b.Median}),
		line("moustache basse", []float64{1, 1}, []float64{b.LowWhisker, b.Q1}),
		line("moustache haute", []float64{1, 1}, []float64{b.Q3, b.HighWhisker}),
		line("min", []float64{0.85, 1.15}, []float64{b.LowWhisker, b.LowWhisker}),
		line("max", []float64{0.85, 1.15}, []float64{b.HighWhisker, b.HighWhisker}),
	}
	if len(b.Outliers) > 0 {
		xs := make([]float64, len(b.Outliers))
		for i := range xs {
			xs[i] = 1
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    "valeurs aberrantes",
			XValues: xs,
			YValues: b.Outliers,
			Style: gochart.Style{
				StrokeWidth: gochart.Disabled,
				DotColor:    outlierColor,
				DotWidth:    4,
			},
		})
	}
	return gochart.Chart{
		Title:      c.Title,
		Width:      width,
		Height:     height,
		Background: background,
		XAxis: gochart.XAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: 2},
			Ticks: []gochart.Tick{{Value: 0, Label: ""}, {Value: 1, Label: "valeurs"}, {Value: 2, Label: ""}},
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: low, Max: high},
		},
		Series: series,
	}
}

// paddedRange returns a non-degenerate axis range around values.
func paddedRange(values []float64) (float64, float64) {
	low, high := seriesMinMax(values)
	if math.Abs(high-low) < 1e-9 {
		return low - 1, high + 1
	}
	pad := (high/2 - low/2) * 0.1
	return math.Max(low-pad, -math.MaxFloat64), math.Min(high+pad, math.MaxFloat64)
}
