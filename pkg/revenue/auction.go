package revenue

import (
	"sort"

	"github.com/bessleague/bessleague/pkg/types"
)

// blocksPerDay scales a per-block clearing price and volume to the revenue
// reported per EFA block.
const blocksPerDay = 4

// Registry is the read-only asset lookup the calculators need.
type Registry interface {
	ByFrequencyResponse(unit string) (types.Asset, bool)
	Assets() []types.Asset
}

// AuctionRevenue is the frequency response revenue of one asset for one EFA
// date.
type AuctionRevenue struct {
	Asset    types.Asset `json:"asset"`
	UnitName string      `json:"unitName"`
	EFADate  string      `json:"efaDate"`
	Revenue  float64     `json:"revenue"`
}

// AuctionResult holds the mapped auction revenue and an account of the
// records that could not be mapped to a known asset.
type AuctionResult struct {
	Rows []AuctionRevenue

	// Unmapped counts dropped records and UnmappedUnits lists their distinct
	// unit names, sorted.
	Unmapped      int
	UnmappedUnits []string
}

// Auction computes clearing price × cleared volume × 4 per record, keeps only
// units the registry knows, sums by (unit, EFA date) and attaches the asset.
// Rows are sorted by unit name then EFA date.
func Auction(records []types.AuctionRecord, reg Registry) AuctionResult {
	type key struct {
		unit, date string
	}
	sums := make(map[key]float64)
	unmapped := make(map[string]struct{})
	var res AuctionResult

	for _, r := range records {
		if _, ok := reg.ByFrequencyResponse(r.UnitName); !ok {
			res.Unmapped++
			unmapped[r.UnitName] = struct{}{}
			continue
		}
		sums[key{r.UnitName, r.EFADate}] += r.ClearingPrice * r.ClearedVolume * blocksPerDay
	}

	res.Rows = make([]AuctionRevenue, 0, len(sums))
	for k, v := range sums {
		asset, _ := reg.ByFrequencyResponse(k.unit)
		res.Rows = append(res.Rows, AuctionRevenue{
			Asset:    asset,
			UnitName: k.unit,
			EFADate:  k.date,
			Revenue:  v,
		})
	}
	sort.Slice(res.Rows, func(i, j int) bool {
		if res.Rows[i].UnitName != res.Rows[j].UnitName {
			return res.Rows[i].UnitName < res.Rows[j].UnitName
		}
		return res.Rows[i].EFADate < res.Rows[j].EFADate
	})

	for u := range unmapped {
		res.UnmappedUnits = append(res.UnmappedUnits, u)
	}
	sort.Strings(res.UnmappedUnits)
	return res
}
