package assets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bessleague/bessleague/pkg/types"
)

var (
	ErrDuplicateBalancingUnit = errors.New("duplicate balancing unit id")
	ErrMissingBalancingUnit   = errors.New("missing balancing unit id")
)

// Registry is the immutable lookup between the fleet's identifier namespaces.
// It is built once and can be shared between goroutines without locking.
type Registry struct {
	assets  []types.Asset
	byBMU   map[string]int
	byDFR   map[string]int
	bmUnits []string
}

// NewRegistry validates the given assets and builds a Registry. Balancing
// unit IDs must be unique. If two assets share a frequency response ID the
// later one wins.
func NewRegistry(list []types.Asset) (*Registry, error) {
	r := &Registry{
		assets:  make([]types.Asset, 0, len(list)),
		byBMU:   make(map[string]int, len(list)),
		byDFR:   make(map[string]int, len(list)),
		bmUnits: make([]string, 0, len(list)),
	}
	for i, a := range list {
		a.BalancingUnitID = strings.TrimSpace(a.BalancingUnitID)
		a.FrequencyResponseID = strings.TrimSpace(a.FrequencyResponseID)
		if a.BalancingUnitID == "" {
			return nil, fmt.Errorf("asset %d (%s): %w", i, a.Site, ErrMissingBalancingUnit)
		}
		if _, ok := r.byBMU[a.BalancingUnitID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBalancingUnit, a.BalancingUnitID)
		}
		idx := len(r.assets)
		r.assets = append(r.assets, a)
		r.byBMU[a.BalancingUnitID] = idx
		r.bmUnits = append(r.bmUnits, a.BalancingUnitID)
		if a.EnrolledInAuction() {
			r.byDFR[a.FrequencyResponseID] = idx
		}
	}
	return r, nil
}

// Len returns the number of assets.
func (r *Registry) Len() int {
	return len(r.assets)
}

// Assets returns a copy of every asset in load order.
func (r *Registry) Assets() []types.Asset {
	out := make([]types.Asset, len(r.assets))
	copy(out, r.assets)
	return out
}

// BalancingUnits returns every balancing unit ID in load order.
func (r *Registry) BalancingUnits() []string {
	out := make([]string, len(r.bmUnits))
	copy(out, r.bmUnits)
	return out
}

// ByBalancingUnit looks up an asset by balancing unit ID.
func (r *Registry) ByBalancingUnit(id string) (types.Asset, bool) {
	idx, ok := r.byBMU[id]
	if !ok {
		return types.Asset{}, false
	}
	return r.assets[idx], true
}

// ByFrequencyResponse looks up an asset by frequency response auction unit.
func (r *Registry) ByFrequencyResponse(unit string) (types.Asset, bool) {
	idx, ok := r.byDFR[unit]
	if !ok {
		return types.Asset{}, false
	}
	return r.assets[idx], true
}
