package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bessleague/bessleague/pkg/types"
)

// Header is the leaderboard column order shared by every format.
var Header = []string{
	"Site",
	"Owner",
	"Optimiser",
	"EFA Date",
	"MW",
	"MWh",
	"DFR (£)",
	"BM (£)",
	"Wholesale-Index (£)",
	"Wholesale-System (£)",
	"Total (£)",
	"£k/MW/yr",
}

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat parses a format name, case-insensitively. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format: %s", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename returns the download name for a date.
func (f Format) Filename(date string) string {
	return fmt.Sprintf("leaderboard-%s.%s", date, f)
}

// Write renders rows for date in the given format.
func Write(w io.Writer, f Format, date string, rows []types.DisplayRow) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	case FormatPDF:
		return WritePDF(w, date, rows)
	default:
		return fmt.Errorf("unknown export format: %s", f)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// record returns a row's cells in Header order.
func record(r types.DisplayRow) []string {
	return []string{
		r.Site,
		r.Owner,
		r.Optimiser,
		r.EFADate,
		formatFloat(r.MW),
		formatFloat(r.MWh),
		strconv.FormatInt(r.DFR, 10),
		strconv.FormatInt(r.Balancing, 10),
		strconv.FormatInt(r.WholesaleIndex, 10),
		strconv.FormatInt(r.WholesaleSystem, 10),
		strconv.FormatInt(r.Total, 10),
		strconv.FormatInt(r.PerMWYear, 10),
	}
}
