package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/bessleague/bessleague/pkg/types"
	"github.com/levenlabs/go-lflag"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
)

// Database persists the fleet's asset identity table. Computed revenue is
// never stored.
type Database interface {
	// Assets
	ListAssets(ctx context.Context) ([]types.Asset, error)
	GetAsset(ctx context.Context, bmuID string) (types.Asset, error)
	UpsertAsset(ctx context.Context, asset types.Asset) error
	DeleteAsset(ctx context.Context, bmuID string) error

	// Lifecycle
	Close() error
}

type configured struct{ Database }

// Enabled returns false if db is nil or was configured with the "none"
// provider.
func Enabled(db Database) bool {
	if db == nil {
		return false
	}
	if c, ok := db.(*configured); ok {
		return c.Database != nil
	}
	return true
}

// Configured sets up the Storage provider based on flags. The "none" provider
// leaves the Database unusable; check it with Enabled.
func Configured() Database {
	provider := lflag.String("storage-provider", "none", "Storage provider to use (available: none, firestore)")

	var p configured

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "none", "":
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.Database = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}

// Close closes the underlying provider, if any.
func (c *configured) Close() error {
	if c.Database == nil {
		return nil
	}
	return c.Database.Close()
}
