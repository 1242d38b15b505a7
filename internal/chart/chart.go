// Package chart builds and renders charts of a number sequence.
package chart

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	gonumstat "gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/tuistat/internal/model"
)

// WhiskerFactor scales the IQR fences of the box plot.
const WhiskerFactor = 1.5

var titles = map[model.ChartKind]string{
	model.ChartHistogram: "Histogramme des données",
	model.ChartTrend:     "Courbe de tendance",
	model.ChartBoxplot:   "Boîte à moustaches (Boxplot)",
	model.ChartLinear:    "Graphe linéaire",
}

// Point is one sample of a line chart.
type Point struct {
	X float64
	Y float64
}

// Bin is one histogram bucket covering [Low, High).
type Bin struct {
	Low   float64
	High  float64
	Count int
}

// Box is a five-number summary plus the points beyond the fences.
type Box struct {
	LowWhisker  float64
	Q1          float64
	Median      float64
	Q3          float64
	HighWhisker float64
	Outliers    []float64
}

// Chart is the renderer-independent description of one chart.
type Chart struct {
	Kind   model.ChartKind
	Title  string
	Points []Point
	Bins   []Bin
	Box    *Box
}

// Build describes the requested kinds for values, in fixed kind order.
// Charts are derived from the raw values only.
func Build(values []float64, kinds []model.ChartKind) []Chart {
	if len(values) == 0 {
		return nil
	}
	want := make(map[model.ChartKind]bool, len(kinds))
	for _, kind := range kinds {
		want[kind] = true
	}
	charts := make([]Chart, 0, len(want))
	for _, kind := range model.ChartKinds {
		if !want[kind] {
			continue
		}
		c := Chart{Kind: kind, Title: titles[kind]}
		switch kind {
		case model.ChartHistogram:
			c.Bins = Histogram(values)
		case model.ChartTrend:
			sorted := append([]float64(nil), values...)
			sort.Float64s(sorted)
			c.Points = indexed(sorted)
		case model.ChartBoxplot:
			box := BoxSummary(values)
			c.Box = &box
		case model.ChartLinear:
			c.Points = indexed(values)
		}
		charts = append(charts, c)
	}
	return charts
}

// Columns returns the grid width for n charts: two side by side, otherwise a stack.
func Columns(n int) int {
	if n == 2 {
		return 2
	}
	return 1
}

// Histogram buckets values into ceil(sqrt(n)) equal-width bins.
func Histogram(values []float64) []Bin {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	low, high := sorted[0], sorted[len(sorted)-1]
	if low == high {
		low -= 0.5
		high += 0.5
	}

	n := int(math.Ceil(math.Sqrt(float64(len(sorted)))))
	dividers := make([]float64, n+1)
	if math.IsInf(high-low, 0) {
		// The span itself overflows; interpolate each edge term by term.
		for i := range dividers {
			frac := float64(i) / float64(n)
			dividers[i] = low*(1-frac) + high*frac
		}
	} else {
		floats.Span(dividers, low, high)
	}
	// gonum bins are half-open; nudge the last edge so the maximum lands inside.
	dividers[n] = math.Nextafter(high, math.Inf(1))

	if !sort.Float64sAreSorted(dividers) {
		return []Bin{{Low: low, High: high, Count: len(sorted)}}
	}
	counts := gonumstat.Histogram(nil, dividers, sorted, nil)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Low: dividers[i], High: dividers[i+1], Count: int(counts[i])}
	}
	bins[n-1].High = high
	return bins
}

// BoxSummary computes quartiles, whiskers and outliers of values.
func BoxSummary(values []float64) Box {
	if len(values) == 0 {
		return Box{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		v := sorted[0]
		return Box{LowWhisker: v, Q1: v, Median: v, Q3: v, HighWhisker: v}
	}

	q, err := stats.Quartile(stats.Float64Data(sorted))
	if err != nil {
		v := sorted[0]
		return Box{LowWhisker: v, Q1: v, Median: v, Q3: v, HighWhisker: v}
	}
	iqr := q.Q3 - q.Q1
	lowFence := q.Q1 - WhiskerFactor*iqr
	highFence := q.Q3 + WhiskerFactor*iqr

	box := Box{
		Q1:          q.Q1,
		Median:      q.Q2,
		Q3:          q.Q3,
		LowWhisker:  q.Q1,
		HighWhisker: q.Q3,
	}
	first := true
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			box.Outliers = append(box.Outliers, v)
			continue
		}
		if first {
			box.LowWhisker = v
			first = false
		}
		box.HighWhisker = v
	}
	return box
}

func indexed(values []float64) []Point {
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{X: float64(i + 1), Y: v}
	}
	return points
}

// Selection is the ordered set of chart kinds the user toggled on.
type Selection struct {
	kinds []model.ChartKind
}

// NewSelection starts a selection with kinds toggled on in order.
func NewSelection(kinds ...model.ChartKind) Selection {
	var s Selection
	for _, kind := range kinds {
		if !s.Has(kind) {
			s = s.Toggle(kind)
		}
	}
	return s
}

// Toggle returns a selection with kind flipped. The receiver is unchanged.
func (s Selection) Toggle(kind model.ChartKind) Selection {
	out := make([]model.ChartKind, 0, len(s.kinds)+1)
	found := false
	for _, k := range s.kinds {
		if k == kind {
			found = true
			continue
		}
		out = append(out, k)
	}
	if !found {
		out = append(out, kind)
	}
	return Selection{kinds: out}
}

// Has reports whether kind is selected.
func (s Selection) Has(kind model.ChartKind) bool {
	for _, k := range s.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Kinds returns the selected kinds in render order.
func (s Selection) Kinds() []model.ChartKind {
	out := make([]model.ChartKind, 0, len(s.kinds))
	for _, kind := range model.ChartKinds {
		if s.Has(kind) {
			out = append(out, kind)
		}
	}
	return out
}

// Len returns the number of selected kinds.
func (s Selection) Len() int {
	return len(s.kinds)
}
