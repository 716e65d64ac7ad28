package export

import (
	"fmt"
	"io"

	"github.com/bessleague/bessleague/pkg/types"
	"github.com/jung-kurt/gofpdf"
)

// column widths in mm for an A4 landscape page
var pdfWidths = []float64{38, 30, 30, 20, 12, 12, 20, 20, 26, 26, 20, 18}

// WritePDF renders the leaderboard as a landscape table.
func WritePDF(w io.Writer, date string, rows []types.DisplayRow) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	// core fonts are cp1252, which has £
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, tr(fmt.Sprintf("BESS revenue leaderboard: %s", date)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 8)
	for i, h := range Header {
		pdf.CellFormat(pdfWidths[i], 6, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, r := range rows {
		for i, v := range record(r) {
			align := "R"
			if i < 4 {
				align = "L"
			}
			pdf.CellFormat(pdfWidths[i], 6, tr(v), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(rows) == 0 {
		pdf.Ln(4)
		pdf.Cell(0, 6, "No rows.")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
