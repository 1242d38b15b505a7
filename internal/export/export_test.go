package export

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/verte-zerg/tuistat/internal/model"
)

func sampleRecord() model.StatisticsRecord {
	return model.StatisticsRecord{
		Mean:      model.Float(3),
		Median:    model.Float(3),
		Mode:      model.NumberList{},
		Variance:  model.Float(2),
		StdDev:    model.Float(1.41421356),
		Skewness:  model.Float(0),
		Kurtosis:  model.Float(-1.3),
		Quartiles: &model.Quartiles{Q1: model.Float(1.5), Q3: model.Float(4.5)},
		IQR:       model.Float(3),
		Outliers:  model.NumberList{},
		Min:       model.Float(1),
		Max:       model.Float(5),
		Range:     model.Float(4),
	}
}

func lineStrings(rec model.StatisticsRecord) []string {
	lines := Lines(rec)
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line.String()
	}
	return out
}

func TestLinesOrderAndFormatting(t *testing.T) {
	assert.Equal(t, []string{
		"Moyenne: 3.00",
		"Médiane: 3.00",
		"Mode: Aucun",
		"Variance: 2.00",
		"Écart-type: 1.41",
		"Skewness: 0.00",
		"Kurtosis: -1.30",
		"Q1: 1.50",
		"Q2: 3.00",
		"Q3: 4.50",
		"IQR: 3.00",
		"Valeurs aberrantes: Aucune",
		"Min: 1",
		"Max: 5",
		"Amplitude: 4",
	}, lineStrings(sampleRecord()))
}

func TestLinesListsAndMissingValues(t *testing.T) {
	rec := model.StatisticsRecord{
		Mode:     model.NumberList{2, 2.5},
		Outliers: model.NumberList{100},
		Min:      model.Float(0.25),
	}
	lines := lineStrings(rec)
	assert.Equal(t, "Moyenne: N/A", lines[0])
	assert.Equal(t, "Mode: 2, 2.5", lines[2])
	assert.Equal(t, "Q1: N/A", lines[7])
	assert.Equal(t, "Valeurs aberrantes: 100", lines[11])
	assert.Equal(t, "Min: 0.25", lines[12])
	assert.Equal(t, "Max: N/A", lines[13])
}

func TestSplitLineFirstColonOnly(t *testing.T) {
	label, value := SplitLine("Mode: 1:2")
	assert.Equal(t, "Mode", label)
	assert.Equal(t, "1:2", value)
}

func TestWritePDFContainsLines(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleRecord(), nil))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "%PDF-"))
	assert.Contains(t, out, "(Min: 1) Tj")
	assert.Contains(t, out, "(Amplitude: 4) Tj")
}

func TestWriteExcelTwoRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, sampleRecord()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Moyenne", rows[0][0])
	assert.Equal(t, "3.00", rows[1][0])
	assert.Equal(t, "Amplitude", rows[0][14])
	assert.Equal(t, "4", rows[1][14])
}

func wordDocument(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, file := range zr.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		require.NoError(t, err)
		defer rc.Close()
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(body)
	}
	t.Fatal("word/document.xml not found")
	return ""
}

func TestWriteWordParagraphs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWord(&buf, sampleRecord()))

	document := wordDocument(t, buf.Bytes())
	assert.Contains(t, document, Title)
	assert.Contains(t, document, "Valeurs aberrantes: Aucune")
}

var (
	pdfTextOp  = regexp.MustCompile(`\((.*?)\) Tj`)
	wordTextEl = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
)

// pdfLines returns the text drawn in the document, title excluded.
func pdfLines(t *testing.T, data []byte) []string {
	t.Helper()
	matches := pdfTextOp.FindAllSubmatch(data, -1)
	require.NotEmpty(t, matches)
	out := make([]string, 0, len(matches)-1)
	for _, m := range matches[1:] {
		out = append(out, string(m[1]))
	}
	return out
}

func wordLines(t *testing.T, data []byte) []string {
	t.Helper()
	matches := wordTextEl.FindAllStringSubmatch(wordDocument(t, data), -1)
	require.NotEmpty(t, matches)
	require.Equal(t, Title, matches[0][1])
	out := make([]string, 0, len(matches)-1)
	for _, m := range matches[1:] {
		out = append(out, m[1])
	}
	return out
}

func excelLines(t *testing.T, data []byte) []string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Len(t, rows[1], len(rows[0]))
	out := make([]string, len(rows[0]))
	for i := range rows[0] {
		out[i] = Line{Label: rows[0][i], Value: rows[1][i]}.String()
	}
	return out
}

func TestFormatsAgreeOnEveryLine(t *testing.T) {
	tr := fpdf.New("P", "mm", "A4", "").UnicodeTranslatorFromDescriptor("")
	tests := []struct {
		name string
		rec  model.StatisticsRecord
		want []string
	}{
		{
			name: "complete record",
			rec:  sampleRecord(),
		},
		{
			name: "integers print plainly",
			rec: model.StatisticsRecord{
				Mean:     model.Float(34),
				Mode:     model.NumberList{1, 2.5},
				Outliers: model.NumberList{100},
				Min:      model.Float(1),
				Max:      model.Float(100),
				Range:    model.Float(99),
			},
			want: []string{"Min: 1", "Max: 100", "Amplitude: 99"},
		},
		{
			name: "missing values",
			rec:  model.StatisticsRecord{},
			want: []string{"Moyenne: N/A", "Mode: Aucun", "Valeurs aberrantes: Aucune"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expected := lineStrings(tt.rec)
			require.Len(t, expected, 15)

			var pdfBuf, xlsxBuf, docxBuf bytes.Buffer
			require.NoError(t, WritePDF(&pdfBuf, tt.rec, nil))
			require.NoError(t, WriteExcel(&xlsxBuf, tt.rec))
			require.NoError(t, WriteWord(&docxBuf, tt.rec))

			encoded := make([]string, len(expected))
			for i, line := range expected {
				encoded[i] = tr(line)
			}
			assert.Equal(t, encoded, pdfLines(t, pdfBuf.Bytes()), "pdf")
			assert.Equal(t, expected, excelLines(t, xlsxBuf.Bytes()), "excel")
			assert.Equal(t, expected, wordLines(t, docxBuf.Bytes()), "word")

			for _, line := range tt.want {
				assert.Contains(t, expected, line)
			}
		})
	}
}

func TestExporterExportAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := Exporter{Dir: dir}.ExportAll(context.Background(), sampleRecord(), Options{})
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "resultats-statistiques.pdf"), paths[0])
	assert.Equal(t, filepath.Join(dir, "resultats-statistiques.xlsx"), paths[1])
	assert.Equal(t, filepath.Join(dir, "resultats-statistiques.docx"), paths[2])
	for _, path := range paths {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "temp files must not linger")
}

func TestExporterRejectsUnknownFormat(t *testing.T) {
	_, err := Exporter{Dir: t.TempDir()}.Export(context.Background(), sampleRecord(), model.ExportFormat("odt"), Options{})
	assert.Error(t, err)
}

func TestExporterCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Exporter{Dir: t.TempDir()}.Export(ctx, sampleRecord(), model.FormatPDF, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
