package revenue

import "sort"

// WholesaleRevenue is one asset's wholesale revenue for the date, priced with
// the market index and, for reference only, the system price.
type WholesaleRevenue struct {
	BalancingUnitID string  `json:"balancingUnitID"`
	Index           float64 `json:"index"`
	System          float64 `json:"system"`
}

// Wholesale prices every interval as volume × hours × price for both series,
// treating a missing price as 0, and sums per balancing unit. Results are
// sorted by balancing unit ID.
func Wholesale(intervals []ApportionedInterval, index, system PriceSeries) []WholesaleRevenue {
	byUnit := make(map[string]*WholesaleRevenue)
	for _, in := range intervals {
		w, ok := byUnit[in.BalancingUnitID]
		if !ok {
			w = &WholesaleRevenue{BalancingUnitID: in.BalancingUnitID}
			byUnit[in.BalancingUnitID] = w
		}
		mwh := in.EffectiveVolume * in.DurationHours
		w.Index += mwh * index.Price(in.SettlementPeriod)
		w.System += mwh * system.Price(in.SettlementPeriod)
	}

	out := make([]WholesaleRevenue, 0, len(byUnit))
	for _, w := range byUnit {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BalancingUnitID < out[j].BalancingUnitID
	})
	return out
}
