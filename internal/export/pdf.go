package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/verte-zerg/tuistat/internal/model"
)

const (
	pdfMarginX     = 10.0
	pdfTitleY      = 20.0
	pdfFirstLineY  = 30.0
	pdfLineStep    = 10.0
	pdfChartWidth  = 180.0
	pdfChartHeight = 80.0
)

// WritePDF writes an A4 document. chartPNG, when non-empty, is placed
// below the text.
func WritePDF(w io.Writer, rec model.StatisticsRecord, chartPNG []byte) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetTitle(Title, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "", 16)
	pdf.Text(pdfMarginX, pdfTitleY, tr(Title))

	pdf.SetFont("Helvetica", "", 12)
	lines := Lines(rec)
	for i, line := range lines {
		pdf.Text(pdfMarginX, pdfFirstLineY+float64(i)*pdfLineStep, tr(line.String()))
	}

	if len(chartPNG) > 0 {
		y := pdfFirstLineY + float64(len(lines))*pdfLineStep
		_, pageHeight := pdf.GetPageSize()
		if y+pdfChartHeight > pageHeight-pdfMarginX {
			pdf.AddPage()
			y = pdfTitleY
		}
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("chart", opts, bytes.NewReader(chartPNG))
		pdf.ImageOptions("chart", pdfMarginX, y, pdfChartWidth, pdfChartHeight, false, opts, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
