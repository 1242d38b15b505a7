package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/tuistat/internal/model"
)

// ImportError reports a file that yielded no numeric data.
type ImportError struct {
	Path string
}

func (e *ImportError) Error() string {
	return "Aucune donnée valide trouvée dans le fichier"
}

// ErrUnsupportedFile is returned for extensions other than .csv and .xlsx.
var ErrUnsupportedFile = errors.New("unsupported file type (use .csv or .xlsx)")

// ImportFile reads a spreadsheet and returns its numeric cells.
func ImportFile(path string) (model.NumberSequence, error) {
	cells, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	values := ParseCells(cells)
	if len(values) == 0 {
		return nil, &ImportError{Path: path}
	}
	return values, nil
}

// ReadFile returns every cell of the first sheet, flattened row by row.
func ReadFile(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open csv: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		return ReadCSV(f)
	case ".xlsx":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		return ReadXLSX(f)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFile)
	}
}

// ReadCSV flattens all records of a CSV stream. Rows may be ragged.
func ReadCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return flatten(rows), nil
}

// ReadXLSX flattens the first sheet of a workbook.
func ReadXLSX(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return flatten(rows), nil
}

func flatten(rows [][]string) []string {
	total := 0
	for _, row := range rows {
		total += len(row)
	}
	out := make([]string, 0, total)
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}
