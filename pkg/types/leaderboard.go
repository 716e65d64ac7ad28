package types

import "math"

// LeaderboardRow is one asset's estimated revenue for a settlement date. All
// currency values are in £ and kept at full precision; use Display for the
// truncated view.
type LeaderboardRow struct {
	Site                string  `json:"site"`
	Owner               string  `json:"owner"`
	Optimiser           string  `json:"optimiser"`
	BalancingUnitID     string  `json:"balancingUnitID"`
	FrequencyResponseID string  `json:"frequencyResponseID,omitempty"`
	MW                  float64 `json:"mw"`
	MWh                 float64 `json:"mwh"`
	EFADate             string  `json:"efaDate"`

	DFR             float64 `json:"dfr"`
	WholesaleIndex  float64 `json:"wholesaleIndex"`
	WholesaleSystem float64 `json:"wholesaleSystem"`
	Balancing       float64 `json:"balancing"`
	Total           float64 `json:"total"`

	// PerMWYear is Total annualized and normalized, in £k/MW/yr.
	PerMWYear float64 `json:"perMWYear"`
}

// DisplayRow is the integer view of a LeaderboardRow used for presentation
// and export.
type DisplayRow struct {
	Site            string  `json:"site"`
	Owner           string  `json:"owner"`
	Optimiser       string  `json:"optimiser"`
	EFADate         string  `json:"efaDate"`
	MW              float64 `json:"mw"`
	MWh             float64 `json:"mwh"`
	DFR             int64   `json:"dfr"`
	Balancing       int64   `json:"bm"`
	WholesaleIndex  int64   `json:"wholesaleIndex"`
	WholesaleSystem int64   `json:"wholesaleSystem"`
	Total           int64   `json:"total"`
	PerMWYear       int64   `json:"perMWYear"`
}

// Display truncates every currency value toward zero. Totals were already
// computed from the untruncated components.
func (r LeaderboardRow) Display() DisplayRow {
	return DisplayRow{
		Site:            r.Site,
		Owner:           r.Owner,
		Optimiser:       r.Optimiser,
		EFADate:         r.EFADate,
		MW:              r.MW,
		MWh:             r.MWh,
		DFR:             truncate(r.DFR),
		Balancing:       truncate(r.Balancing),
		WholesaleIndex:  truncate(r.WholesaleIndex),
		WholesaleSystem: truncate(r.WholesaleSystem),
		Total:           truncate(r.Total),
		PerMWYear:       truncate(r.PerMWYear),
	}
}

func truncate(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(math.Trunc(v))
}
