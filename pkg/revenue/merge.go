package revenue

import (
	"sort"

	"github.com/bessleague/bessleague/pkg/types"
)

// MergeOptions describes which streams failed upstream and should be treated
// as zero instead of driving the joins.
type MergeOptions struct {
	// Date is the requested settlement date, used as the EFA date of rows
	// built without auction data.
	Date string

	// WholesaleUnavailable keeps every auction row and sets wholesale to 0.
	WholesaleUnavailable bool

	// AuctionUnavailable builds one row per registry asset with DFR 0.
	AuctionUnavailable bool
}

// Merge joins the three streams into leaderboard rows. Auction rows are inner
// joined with wholesale on balancing unit ID, then left joined with balancing
// where a missing asset contributes 0. Total excludes the system price
// column. Rows are stable sorted by PerMWYear descending.
func Merge(reg Registry, auction []AuctionRevenue, wholesale []WholesaleRevenue, balancing []BalancingRevenue, opts MergeOptions) []types.LeaderboardRow {
	base := auction
	if opts.AuctionUnavailable {
		assets := reg.Assets()
		base = make([]AuctionRevenue, 0, len(assets))
		for _, a := range assets {
			base = append(base, AuctionRevenue{
				Asset:    a,
				UnitName: a.FrequencyResponseID,
				EFADate:  opts.Date,
			})
		}
	}

	wholesaleByUnit := make(map[string]WholesaleRevenue, len(wholesale))
	for _, w := range wholesale {
		wholesaleByUnit[w.BalancingUnitID] = w
	}
	balancingByUnit := make(map[string]float64, len(balancing))
	for _, b := range balancing {
		balancingByUnit[b.BalancingUnitID] += b.Revenue
	}

	rows := make([]types.LeaderboardRow, 0, len(base))
	for _, a := range base {
		id := a.Asset.BalancingUnitID
		w, ok := wholesaleByUnit[id]
		if !ok && !opts.WholesaleUnavailable {
			continue
		}
		row := types.LeaderboardRow{
			Site:                a.Asset.Site,
			Owner:               a.Asset.Owner,
			Optimiser:           a.Asset.Optimiser,
			BalancingUnitID:     id,
			FrequencyResponseID: a.Asset.FrequencyResponseID,
			MW:                  a.Asset.MW,
			MWh:                 a.Asset.MWh,
			EFADate:             a.EFADate,
			DFR:                 a.Revenue,
			WholesaleIndex:      w.Index,
			WholesaleSystem:     w.System,
			Balancing:           balancingByUnit[id],
		}
		row.Total = Total(row)
		row.PerMWYear = PerMWYear(row.Total, row.MW)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PerMWYear > rows[j].PerMWYear
	})
	return rows
}

// Total is DFR + wholesale at the index price + balancing. The system price
// wholesale figure is informational and not included.
func Total(row types.LeaderboardRow) float64 {
	return row.DFR + row.WholesaleIndex + row.Balancing
}

// PerMWYear annualizes a single day's total and normalizes it by capacity in
// £k/MW/yr. Non-positive capacity returns 0.
func PerMWYear(total, mw float64) float64 {
	if mw <= 0 {
		return 0
	}
	return total * 365 / (mw * 1000)
}
