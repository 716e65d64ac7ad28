package revenue

import (
	"sort"

	"github.com/bessleague/bessleague/pkg/types"
)

// PricePoint is the reference price for one settlement period in £/MWh.
type PricePoint struct {
	SettlementPeriod int     `json:"settlementPeriod"`
	Price            float64 `json:"price"`
}

// PriceSeries maps settlement period to reference price. Absent periods are
// missing, which Price reports as 0.
type PriceSeries map[int]float64

// Price returns the price for the period or 0 if it is missing.
func (s PriceSeries) Price(period int) float64 {
	return s[period]
}

// Points returns the series ordered by settlement period.
func (s PriceSeries) Points() []PricePoint {
	out := make([]PricePoint, 0, len(s))
	for p, v := range s {
		out = append(out, PricePoint{SettlementPeriod: p, Price: v})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SettlementPeriod < out[j].SettlementPeriod
	})
	return out
}

// ReconcileIndexPrices collapses provider quotations into one volume-weighted
// price per settlement period: Σ(price·volume) / Σ(volume). Periods whose
// total volume is zero have no defined price; they are left out of the series
// and returned, sorted, as skipped.
func ReconcileIndexPrices(quotes []types.MarketIndexQuote) (PriceSeries, []int) {
	type acc struct {
		pv, v float64
	}
	sums := make(map[int]*acc)
	for _, q := range quotes {
		a, ok := sums[q.SettlementPeriod]
		if !ok {
			a = &acc{}
			sums[q.SettlementPeriod] = a
		}
		a.pv += q.Price * q.Volume
		a.v += q.Volume
	}

	series := make(PriceSeries, len(sums))
	var skipped []int
	for p, a := range sums {
		if a.v == 0 {
			skipped = append(skipped, p)
			continue
		}
		series[p] = a.pv / a.v
	}
	sort.Ints(skipped)
	return series, skipped
}

// SystemPriceSeries indexes pre-aggregated system prices by settlement
// period. A repeated period keeps the last value.
func SystemPriceSeries(prices []types.SystemPrice) PriceSeries {
	series := make(PriceSeries, len(prices))
	for _, p := range prices {
		series[p.SettlementPeriod] = p.Price
	}
	return series
}
