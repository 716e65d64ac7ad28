package storagemock

import (
	"context"

	"github.com/bessleague/bessleague/pkg/storage"
	"github.com/bessleague/bessleague/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) ListAssets(ctx context.Context) ([]types.Asset, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]types.Asset), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDatabase) GetAsset(ctx context.Context, bmuID string) (types.Asset, error) {
	args := m.Called(ctx, bmuID)
	return args.Get(0).(types.Asset), args.Error(1)
}

func (m *MockDatabase) UpsertAsset(ctx context.Context, asset types.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *MockDatabase) DeleteAsset(ctx context.Context, bmuID string) error {
	args := m.Called(ctx, bmuID)
	return args.Error(0)
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	return args.Error(0)
}
