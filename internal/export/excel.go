package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/tuistat/internal/model"
)

// SheetName is the only sheet of the Excel export.
const SheetName = "Statistiques"

// WriteExcel writes a workbook with labels on row 1 and values on row 2.
func WriteExcel(w io.Writer, rec model.StatisticsRecord) error {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	lines := Lines(rec)
	labels := make([]interface{}, len(lines))
	values := make([]interface{}, len(lines))
	for i, line := range lines {
		label, value := SplitLine(line.String())
		labels[i] = label
		values[i] = value
	}
	if err := f.SetSheetRow(SheetName, "A1", &labels); err != nil {
		return fmt.Errorf("failed to write labels: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A2", &values); err != nil {
		return fmt.Errorf("failed to write values: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
