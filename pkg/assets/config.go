package assets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bessleague/bessleague/pkg/log"
	"github.com/bessleague/bessleague/pkg/storage"
	"github.com/bessleague/bessleague/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// Loader reads the asset identity table from the configured source.
type Loader struct {
	source string
	path   string
	sheet  string
}

// Configured registers the asset flags and returns a Loader.
func Configured() *Loader {
	source := lflag.String("assets-source", "xlsx", "Where to read the asset table from (available: xlsx, yaml, firestore)")
	path := lflag.String("assets-file", "bess_data.xlsx", "Path to the asset workbook or YAML file")
	sheet := lflag.String("assets-sheet", DefaultSheet, "Worksheet holding the asset table")

	l := &Loader{}
	lflag.Do(func() {
		l.source = *source
		l.path = *path
		l.sheet = *sheet
	})
	return l
}

// Source returns the configured source name.
func (l *Loader) Source() string {
	return l.source
}

// Load reads the assets and builds the Registry. db is only used for the
// firestore source.
func (l *Loader) Load(ctx context.Context, db storage.Database) (*Registry, error) {
	list, err := l.read(ctx, db)
	if err != nil {
		return nil, err
	}
	r, err := NewRegistry(list)
	if err != nil {
		return nil, fmt.Errorf("invalid asset table: %w", err)
	}
	log.Ctx(ctx).InfoContext(
		ctx,
		"loaded assets",
		slog.String("source", l.source),
		slog.Int("count", r.Len()),
	)
	return r, nil
}

func (l *Loader) read(ctx context.Context, db storage.Database) ([]types.Asset, error) {
	switch l.source {
	case "xlsx":
		return LoadXLSX(l.path, l.sheet)
	case "yaml":
		return LoadYAML(l.path)
	case "firestore":
		if !storage.Enabled(db) {
			return nil, fmt.Errorf("assets-source firestore requires storage-provider firestore")
		}
		list, err := db.ListAssets(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list assets: %w", err)
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unknown assets source: %s", l.source)
	}
}
