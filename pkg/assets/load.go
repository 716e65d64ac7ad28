package assets

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bessleague/bessleague/pkg/types"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// DefaultSheet is the worksheet holding the BM-registered batteries.
const DefaultSheet = "bess bm"

// column headers expected in the asset workbook, matched case-insensitively
var xlsxColumns = map[string]string{
	"site":        "site",
	"owner":       "owner",
	"optimiser":   "optimiser",
	"bmu id":      "bmu",
	"dfr/ffr id":  "dfr",
	"dfr id":      "dfr",
	"mw":          "mw",
	"mwh":         "mwh",
	"optimizer":   "optimiser",
	"bm unit id":  "bmu",
	"bmu":         "bmu",
	"dfr/ffr ids": "dfr",
}

// LoadXLSX reads assets from the named sheet of an Excel workbook. The first
// row must be a header row; blank rows are skipped.
func LoadXLSX(path, sheet string) ([]types.Asset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = DefaultSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]types.Asset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("asset sheet is empty")
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		if field, ok := xlsxColumns[strings.ToLower(strings.TrimSpace(h))]; ok {
			cols[field] = i
		}
	}
	for _, required := range []string{"site", "bmu", "mw"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("asset sheet missing %q column", required)
		}
	}

	cell := func(row []string, field string) string {
		i, ok := cols[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	number := func(row []string, field string, line int) (float64, error) {
		v := cell(row, field)
		if v == "" {
			return 0, nil
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("row %d: invalid %s value %q: %w", line, field, v, err)
		}
		return n, nil
	}

	var out []types.Asset
	for i, row := range rows[1:] {
		line := i + 2
		if cell(row, "bmu") == "" && cell(row, "site") == "" {
			continue
		}
		mw, err := number(row, "mw", line)
		if err != nil {
			return nil, err
		}
		mwh, err := number(row, "mwh", line)
		if err != nil {
			return nil, err
		}
		out = append(out, types.Asset{
			Site:                cell(row, "site"),
			Owner:               cell(row, "owner"),
			Optimiser:           cell(row, "optimiser"),
			BalancingUnitID:     cell(row, "bmu"),
			FrequencyResponseID: cell(row, "dfr"),
			MW:                  mw,
			MWh:                 mwh,
		})
	}
	return out, nil
}

type yamlFile struct {
	Assets []types.Asset `yaml:"assets"`
}

// LoadYAML reads assets from a YAML file with a top level "assets" list.
func LoadYAML(path string) ([]types.Asset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset file %s: %w", path, err)
	}
	var f yamlFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse asset file %s: %w", path, err)
	}
	return f.Assets, nil
}
