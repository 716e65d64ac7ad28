// Command seed copies the asset identity table from a workbook or YAML file
// into Firestore.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bessleague/bessleague/pkg/assets"
	"github.com/bessleague/bessleague/pkg/log"
	"github.com/bessleague/bessleague/pkg/storage"
	"github.com/bessleague/bessleague/pkg/types"

	"github.com/levenlabs/go-lflag"
)

func main() {
	s := storage.Configured()
	file := lflag.String("file", "bess_data.xlsx", "Asset workbook (.xlsx) or YAML file (.yaml, .yml)")
	sheet := lflag.String("sheet", assets.DefaultSheet, "Worksheet holding the asset table")
	prune := lflag.Bool("prune", false, "Delete stored assets that are not in the file")
	lflag.Configure()

	if _, err := log.SyncLevel(); err != nil {
		panic(err)
	}

	ctx := context.Background()
	if err := seed(ctx, s, *file, *sheet, *prune); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func readAssets(file, sheet string) ([]types.Asset, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".xlsx":
		return assets.LoadXLSX(file, sheet)
	case ".yaml", ".yml":
		return assets.LoadYAML(file)
	default:
		return nil, fmt.Errorf("unsupported asset file: %s", file)
	}
}

func seed(ctx context.Context, db storage.Database, file, sheet string, prune bool) error {
	defer db.Close()
	if !storage.Enabled(db) {
		return fmt.Errorf("seeding requires -storage-provider firestore")
	}

	list, err := readAssets(file, sheet)
	if err != nil {
		return err
	}
	// reject tables the server would refuse to load
	reg, err := assets.NewRegistry(list)
	if err != nil {
		return fmt.Errorf("invalid asset table: %w", err)
	}

	keep := make(map[string]bool, reg.Len())
	for _, a := range reg.Assets() {
		if err := db.UpsertAsset(ctx, a); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", a.BalancingUnitID, err)
		}
		keep[a.BalancingUnitID] = true
	}
	log.Ctx(ctx).InfoContext(ctx, "seeded assets", slog.Int("count", reg.Len()))

	if !prune {
		return nil
	}
	stored, err := db.ListAssets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list assets: %w", err)
	}
	var removed int
	for _, a := range stored {
		if keep[a.BalancingUnitID] {
			continue
		}
		if err := db.DeleteAsset(ctx, a.BalancingUnitID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", a.BalancingUnitID, err)
		}
		removed++
	}
	log.Ctx(ctx).InfoContext(ctx, "pruned assets", slog.Int("count", removed))
	return nil
}
