package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "items", cfg.MongoCollection)
	require.Equal(t, 5*time.Minute, cfg.InventoryTTL)
	require.Equal(t, DefaultMaxConcurrentRequests, cfg.MaxConcurrentRequests)
	require.False(t, cfg.EnableImport)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ITEMSORT_MONGO_COLLECTION", "weapons")
	t.Setenv("ITEMSORT_IMPORT_DIRS", "/data/a:/data/b")
	t.Setenv("ITEMSORT_OPERATION_TIMEOUT", "3s")
	t.Setenv("ITEMSORT_ENABLE_IMPORT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "weapons", cfg.MongoCollection)
	require.Equal(t, []string{"/data/a", "/data/b"}, cfg.ImportDirs)
	require.Equal(t, 3*time.Second, cfg.OperationTimeout)
	require.True(t, cfg.EnableImport)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("ITEMSORT_INVENTORY_TTL", "soon")
	_, err := Load()
	require.Error(t, err)
}
