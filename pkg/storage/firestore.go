package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/bessleague/bessleague/pkg/log"
	"github.com/bessleague/bessleague/pkg/types"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const assetsCollection = "assets"

// FirestoreProvider implements Database using Google Cloud Firestore. Each
// asset is one document keyed by its balancing unit ID.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// an empty project ID is detected from the environment
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) assetDoc(bmuID string) (*firestore.DocumentRef, error) {
	bmuID = strings.TrimSpace(bmuID)
	if bmuID == "" {
		return nil, fmt.Errorf("bmuID cannot be empty")
	}
	// document IDs cannot contain slashes
	if strings.Contains(bmuID, "/") {
		return nil, fmt.Errorf("invalid bmuID: %s", bmuID)
	}
	return f.client.Collection(assetsCollection).Doc(bmuID), nil
}

func decodeAsset(doc *firestore.DocumentSnapshot) (types.Asset, error) {
	val, err := doc.DataAt("json")
	if err != nil {
		return types.Asset{}, fmt.Errorf("asset %s missing json: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		return types.Asset{}, fmt.Errorf("asset %s json not string", doc.Ref.ID)
	}
	var asset types.Asset
	if err := json.Unmarshal([]byte(jsonStr), &asset); err != nil {
		return types.Asset{}, fmt.Errorf("failed to unmarshal asset %s: %w", doc.Ref.ID, err)
	}
	return asset, nil
}

// ListAssets returns every asset ordered by balancing unit ID. Malformed
// documents are logged and skipped.
func (f *FirestoreProvider) ListAssets(ctx context.Context) ([]types.Asset, error) {
	iter := f.client.Collection(assetsCollection).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var assets []types.Asset
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating assets: %w", err)
		}

		asset, err := decodeAsset(doc)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "skipping malformed asset", slog.String("bmuID", doc.Ref.ID), slog.Any("error", err))
			continue
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// GetAsset retrieves a single asset by balancing unit ID.
func (f *FirestoreProvider) GetAsset(ctx context.Context, bmuID string) (types.Asset, error) {
	ref, err := f.assetDoc(bmuID)
	if err != nil {
		return types.Asset{}, err
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Asset{}, fmt.Errorf("%w: %s", ErrAssetNotFound, bmuID)
		}
		return types.Asset{}, fmt.Errorf("failed to get asset %s: %w", bmuID, err)
	}
	return decodeAsset(doc)
}

// UpsertAsset creates or replaces the asset document. It stores the asset as
// a JSON string alongside the searchable identifiers.
func (f *FirestoreProvider) UpsertAsset(ctx context.Context, asset types.Asset) error {
	ref, err := f.assetDoc(asset.BalancingUnitID)
	if err != nil {
		return err
	}
	assetJSON, err := json.Marshal(asset)
	if err != nil {
		return fmt.Errorf("failed to marshal asset %s: %w", asset.BalancingUnitID, err)
	}
	_, err = ref.Set(ctx, map[string]interface{}{
		"json":  string(assetJSON),
		"site":  asset.Site,
		"dfrID": asset.FrequencyResponseID,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert asset %s: %w", asset.BalancingUnitID, err)
	}
	return nil
}

// DeleteAsset removes an asset. Deleting a missing asset is not an error.
func (f *FirestoreProvider) DeleteAsset(ctx context.Context, bmuID string) error {
	ref, err := f.assetDoc(bmuID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", bmuID, err)
	}
	return nil
}
