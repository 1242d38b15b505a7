package export

import (
	"fmt"
	"io"

	"github.com/fumiama/go-docx"

	"github.com/verte-zerg/tuistat/internal/model"
)

// Run sizes in half-points.
const (
	wordTitleSize = "28"
	wordLineSize  = "24"
)

// WriteWord writes a document with a bold title and one paragraph per line.
func WriteWord(w io.Writer, rec model.StatisticsRecord) error {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText(Title).Bold().Size(wordTitleSize)
	for _, line := range Lines(rec) {
		doc.AddParagraph().AddText(line.String()).Size(wordLineSize)
	}
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write docx: %w", err)
	}
	return nil
}
