// Package export renders a statistics record as PDF, Excel or Word documents.
package export

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/tuistat/internal/model"
)

// Title heads every exported document.
const Title = "Résultats Statistiques"

// BaseName is the exported file name without extension.
const BaseName = "resultats-statistiques"

// NotAvailable stands in for an absent number.
const NotAvailable = "N/A"

// Line is one labeled value of the export projection.
type Line struct {
	Label string
	Value string
}

func (l Line) String() string {
	return l.Label + ": " + l.Value
}

// Lines projects rec into the fixed, ordered list of labeled values that
// every document format shares.
func Lines(rec model.StatisticsRecord) []Line {
	return []Line{
		{"Moyenne", fixed(rec.Mean)},
		{"Médiane", fixed(rec.Median)},
		{"Mode", list(rec.Mode, "Aucun")},
		{"Variance", fixed(rec.Variance)},
		{"Écart-type", fixed(rec.StdDev)},
		{"Skewness", fixed(rec.Skewness)},
		{"Kurtosis", fixed(rec.Kurtosis)},
		{"Q1", fixed(rec.Q1())},
		{"Q2", fixed(rec.Median)},
		{"Q3", fixed(rec.Q3())},
		{"IQR", fixed(rec.IQR)},
		{"Valeurs aberrantes", list(rec.Outliers, "Aucune")},
		{"Min", plain(rec.Min)},
		{"Max", plain(rec.Max)},
		{"Amplitude", plain(rec.Range)},
	}
}

// SplitLine splits a rendered line on its first colon, trimming the value.
func SplitLine(s string) (string, string) {
	label, value, _ := strings.Cut(s, ":")
	return label, strings.TrimSpace(value)
}

func fixed(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

func plain(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return model.FormatNumber(*v)
}

func list(values model.NumberList, empty string) string {
	if len(values) == 0 {
		return empty
	}
	return joinNumbers(values)
}

func joinNumbers(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = model.FormatNumber(v)
	}
	return strings.Join(parts, ", ")
}
