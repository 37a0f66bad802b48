package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/short-interest/internal/config"
	"github.com/sells-group/short-interest/internal/store"
)

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestInitStore_None(t *testing.T) {
	withConfig(t, &config.Config{Store: config.StoreConfig{Driver: "none"}})

	st, err := initStore(context.Background())
	require.NoError(t, err)
	assert.IsType(t, store.NoopStore{}, st)
}

func TestInitStore_SQLite(t *testing.T) {
	withConfig(t, &config.Config{Store: config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "history.db"),
	}})

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	assert.IsType(t, &store.SQLiteStore{}, st)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestInitStore_Unsupported(t *testing.T) {
	withConfig(t, &config.Config{Store: config.StoreConfig{Driver: "mongo"}})

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver: mongo")
}

func TestInitLookup_InvalidConfig(t *testing.T) {
	withConfig(t, &config.Config{Store: config.StoreConfig{Driver: "sqlite"}})

	_, err := initLookup(context.Background(), "lookup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}
