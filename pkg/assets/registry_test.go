package assets

import (
	"testing"

	"github.com/bessleague/bessleague/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssets() []types.Asset {
	return []types.Asset{
		{Site: "Alpha", Owner: "OA", Optimiser: "PA", BalancingUnitID: "T_ALPHA-1", FrequencyResponseID: "ALPHA1", MW: 50, MWh: 100},
		{Site: "Bravo", Owner: "OB", Optimiser: "PB", BalancingUnitID: "E_BRAVO-1", MW: 10, MWh: 20},
		{Site: "Charlie", Owner: "OC", Optimiser: "PC", BalancingUnitID: " T_CHARLIE-1 ", FrequencyResponseID: " CHARLIE1 ", MW: 25, MWh: 50},
	}
}

func TestNewRegistry(t *testing.T) {
	t.Run("Lookups", func(t *testing.T) {
		r, err := NewRegistry(testAssets())
		require.NoError(t, err)
		assert.Equal(t, 3, r.Len())
		assert.Equal(t, []string{"T_ALPHA-1", "E_BRAVO-1", "T_CHARLIE-1"}, r.BalancingUnits())

		a, ok := r.ByBalancingUnit("T_ALPHA-1")
		require.True(t, ok)
		assert.Equal(t, "Alpha", a.Site)

		c, ok := r.ByFrequencyResponse("CHARLIE1")
		require.True(t, ok)
		assert.Equal(t, "T_CHARLIE-1", c.BalancingUnitID)

		_, ok = r.ByFrequencyResponse("")
		assert.False(t, ok)
		_, ok = r.ByBalancingUnit("T_NOPE-1")
		assert.False(t, ok)
	})

	t.Run("DuplicateBalancingUnit", func(t *testing.T) {
		list := testAssets()
		list = append(list, types.Asset{Site: "Alpha 2", BalancingUnitID: "T_ALPHA-1"})
		_, err := NewRegistry(list)
		assert.ErrorIs(t, err, ErrDuplicateBalancingUnit)
	})

	t.Run("MissingBalancingUnit", func(t *testing.T) {
		_, err := NewRegistry([]types.Asset{{Site: "Nowhere"}})
		assert.ErrorIs(t, err, ErrMissingBalancingUnit)
	})

	t.Run("DuplicateFrequencyResponseLastWins", func(t *testing.T) {
		list := []types.Asset{
			{Site: "One", BalancingUnitID: "A-1", FrequencyResponseID: "SHARED"},
			{Site: "Two", BalancingUnitID: "A-2", FrequencyResponseID: "SHARED"},
		}
		r, err := NewRegistry(list)
		require.NoError(t, err)
		a, ok := r.ByFrequencyResponse("SHARED")
		require.True(t, ok)
		assert.Equal(t, "Two", a.Site)
	})

	t.Run("AssetsIsCopy", func(t *testing.T) {
		r, err := NewRegistry(testAssets())
		require.NoError(t, err)
		got := r.Assets()
		got[0].Site = "changed"
		a, _ := r.ByBalancingUnit("T_ALPHA-1")
		assert.Equal(t, "Alpha", a.Site)
	})
}
