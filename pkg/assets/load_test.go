package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bessleague/bessleague/pkg/storage/storagemock"
	"github.com/bessleague/bessleague/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "assets.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadXLSX(t *testing.T) {
	path := writeWorkbook(t, DefaultSheet, [][]interface{}{
		{"Site", "Owner", "Optimiser", "BMU ID", "DFR/FFR ID", "MW", "MWh"},
		{"Alpha", "OA", "PA", "T_ALPHA-1", "ALPHA1", 50, 100},
		{"", "", "", "", "", "", ""},
		{"Bravo", "OB", "PB", "E_BRAVO-1", "", 9.9, 19.8},
	})

	list, err := LoadXLSX(path, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, types.Asset{
		Site: "Alpha", Owner: "OA", Optimiser: "PA",
		BalancingUnitID: "T_ALPHA-1", FrequencyResponseID: "ALPHA1",
		MW: 50, MWh: 100,
	}, list[0])
	assert.Equal(t, "E_BRAVO-1", list[1].BalancingUnitID)
	assert.InDelta(t, 9.9, list[1].MW, 1e-9)
	assert.False(t, list[1].EnrolledInAuction())

	t.Run("MissingSheet", func(t *testing.T) {
		_, err := LoadXLSX(path, "nope")
		assert.Error(t, err)
	})
}

func TestParseRows(t *testing.T) {
	t.Run("MissingColumn", func(t *testing.T) {
		_, err := parseRows([][]string{{"Site", "MW"}})
		assert.ErrorContains(t, err, `missing "bmu" column`)
	})

	t.Run("BadNumber", func(t *testing.T) {
		_, err := parseRows([][]string{
			{"Site", "BMU ID", "MW"},
			{"Alpha", "T_ALPHA-1", "fifty"},
		})
		assert.ErrorContains(t, err, "row 2")
	})

	t.Run("ShortRow", func(t *testing.T) {
		list, err := parseRows([][]string{
			{"Site", "BMU ID", "MW", "MWh", "DFR/FFR ID"},
			{"Alpha", "T_ALPHA-1", "5"},
		})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 5.0, list[0].MW)
		assert.Equal(t, "", list[0].FrequencyResponseID)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := parseRows(nil)
		assert.Error(t, err)
	})
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
assets:
  - site: Alpha
    owner: OA
    optimiser: PA
    bmu_id: T_ALPHA-1
    dfr_id: ALPHA1
    mw: 50
    mwh: 100
  - site: Bravo
    bmu_id: E_BRAVO-1
    mw: 10
`), 0o600))

	list, err := LoadYAML(path)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ALPHA1", list[0].FrequencyResponseID)
	assert.Equal(t, 10.0, list[1].MW)

	_, err = LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoaderLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("Firestore", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("ListAssets", mock.Anything).Return(testAssets(), nil)

		l := &Loader{source: "firestore"}
		r, err := l.Load(ctx, db)
		require.NoError(t, err)
		assert.Equal(t, 3, r.Len())
		db.AssertExpectations(t)
	})

	t.Run("FirestoreError", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("ListAssets", mock.Anything).Return(nil, errors.New("boom"))

		l := &Loader{source: "firestore"}
		_, err := l.Load(ctx, db)
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("FirestoreDisabled", func(t *testing.T) {
		l := &Loader{source: "firestore"}
		_, err := l.Load(ctx, nil)
		assert.ErrorContains(t, err, "storage-provider")
	})

	t.Run("Duplicate", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("ListAssets", mock.Anything).Return([]types.Asset{
			{BalancingUnitID: "A"}, {BalancingUnitID: "A"},
		}, nil)
		l := &Loader{source: "firestore"}
		_, err := l.Load(ctx, db)
		assert.ErrorIs(t, err, ErrDuplicateBalancingUnit)
	})

	t.Run("UnknownSource", func(t *testing.T) {
		l := &Loader{source: "csv"}
		_, err := l.Load(ctx, nil)
		assert.ErrorContains(t, err, "unknown assets source")
	})
}
