package export

import (
	"fmt"
	"io"

	"github.com/bessleague/bessleague/pkg/types"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the exported leaderboard.
const SheetName = "leaderboard"

// WriteXLSX writes a workbook with a single leaderboard sheet. Currency cells
// are numeric.
func WriteXLSX(w io.Writer, rows []types.DisplayRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.Site,
			r.Owner,
			r.Optimiser,
			r.EFADate,
			r.MW,
			r.MWh,
			r.DFR,
			r.Balancing,
			r.WholesaleIndex,
			r.WholesaleSystem,
			r.Total,
			r.PerMWYear,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
