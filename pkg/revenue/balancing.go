package revenue

import (
	"errors"
	"sort"

	"github.com/bessleague/bessleague/pkg/types"
)

// ErrNoData means an upstream returned nothing for the requested date, which
// usually means the date is invalid or not yet published.
var ErrNoData = errors.New("no data for date")

// BalancingRevenue is one asset's balancing mechanism revenue for the date.
type BalancingRevenue struct {
	BalancingUnitID string  `json:"balancingUnitID"`
	Revenue         float64 `json:"revenue"`
}

// Balancing sums price × volume per balancing unit, sorted by balancing unit
// ID. An empty input returns ErrNoData rather than an empty table.
func Balancing(records []types.BalancingRecord) ([]BalancingRevenue, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	sums := make(map[string]float64)
	for _, r := range records {
		sums[r.BalancingUnitID] += r.Price * r.Volume
	}

	out := make([]BalancingRevenue, 0, len(sums))
	for id, v := range sums {
		out = append(out, BalancingRevenue{BalancingUnitID: id, Revenue: v})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BalancingUnitID < out[j].BalancingUnitID
	})
	return out, nil
}
