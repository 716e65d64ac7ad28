package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/bessleague/bessleague/pkg/types"
)

// WriteCSV writes the header and one line per row.
func WriteCSV(w io.Writer, rows []types.DisplayRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
