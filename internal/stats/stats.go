package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/tuistat/internal/export"
	"github.com/verte-zerg/tuistat/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RecordLines formats rec as an aligned two-column table.
func RecordLines(rec model.StatisticsRecord) []string {
	return alignLines(export.Lines(rec))
}

// RenderRecord prints the results table.
func RenderRecord(w io.Writer, rec model.StatisticsRecord) error {
	if _, err := fmt.Fprintln(w, "Résultats :"); err != nil {
		return err
	}
	for _, line := range RecordLines(rec) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// HistoryLine summarises one entry.
func HistoryLine(entry model.HistoryEntry) string {
	rec := entry.Record
	return fmt.Sprintf("Série : %s → Moyenne : %s, Médiane : %s, Min : %s, Max : %s",
		entry.Input,
		fixed(rec.Mean),
		fixed(rec.Median),
		plain(rec.Min),
		plain(rec.Max),
	)
}

// HistoryMeans returns the means of entries from oldest to newest, skipping
// entries without one.
func HistoryMeans(entries []model.HistoryEntry) []float64 {
	out := make([]float64, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if mean := entries[i].Record.Mean; mean != nil {
			out = append(out, *mean)
		}
	}
	return out
}

// RenderHistory prints entries newest first, followed by a sparkline of
// their means.
func RenderHistory(w io.Writer, entries []model.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "Aucun calcul dans l'historique.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Historique des Calculs (%d) :\n", len(entries)); err != nil {
		return err
	}
	for _, entry := range entries {
		if _, err := fmt.Fprintln(w, HistoryLine(entry)); err != nil {
			return err
		}
	}
	if means := HistoryMeans(entries); len(means) > 1 {
		if _, err := fmt.Fprintf(w, "Moyennes : %s\n", Sparkline(means)); err != nil {
			return err
		}
	}
	return nil
}

func fixed(v *float64) string {
	if v == nil {
		return export.NotAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

func plain(v *float64) string {
	if v == nil {
		return export.NotAvailable
	}
	return model.FormatNumber(*v)
}
