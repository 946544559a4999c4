package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dairysense/internal/config"
)

func TestOpenStoreSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(ctx, config.StoreConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "dairy.db"),
	}, nil)
	require.NoError(t, err)
	defer func() { assert.NoError(t, store.Close(ctx)) }()

	cows, err := store.ListActiveCows(ctx)
	require.NoError(t, err)
	assert.Empty(t, cows)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), config.StoreConfig{Driver: "oracle"}, nil)
	assert.Error(t, err)
}
