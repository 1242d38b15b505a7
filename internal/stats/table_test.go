package stats

import (
	"testing"

	"github.com/verte-zerg/tuistat/internal/export"
)

func TestAlignLinesColumns(t *testing.T) {
	lines := alignLines([]export.Line{
		{Label: "Moyenne", Value: "3.00"},
		{Label: "Écart-type", Value: "12.50"},
	})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "Moyenne       3.00" {
		t.Fatalf("unexpected row line: %q", lines[0])
	}
	if lines[1] != "Écart-type   12.50" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
}

func TestAlignLinesWideRunes(t *testing.T) {
	lines := alignLines([]export.Line{{Label: "数", Value: "1"}, {Label: "ab", Value: "22"}})
	if lines[0] != "数   1" {
		t.Fatalf("unexpected wide line: %q", lines[0])
	}
	if lines[1] != "ab  22" {
		t.Fatalf("unexpected line: %q", lines[1])
	}
}

func TestAlignLinesEmpty(t *testing.T) {
	if got := alignLines(nil); len(got) != 0 {
		t.Fatalf("expected no lines, got %q", got)
	}
}
