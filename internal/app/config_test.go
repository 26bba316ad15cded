package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8090, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, StorageBackendFile, cfg.Storage.Backend)
	require.Equal(t, "./data/folderdeck", cfg.Storage.Dir)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "#3b82f6", cfg.Folders.DefaultColor)
	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, "@hourly", cfg.Maintenance.Schedule)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, StorageBackendDatabase, cfg.Storage.Backend)
	require.Equal(t, "/var/lib/folderdeck", cfg.Storage.Dir)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.True(t, cfg.Database.Postgres.Enabled)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "folderdeck", cfg.Database.Postgres.Database)
	require.Equal(t, "deck", cfg.Database.Postgres.Username)

	require.Equal(t, "#22c55e", cfg.Folders.DefaultColor)

	require.False(t, cfg.Maintenance.Enabled)
	require.Equal(t, "@daily", cfg.Maintenance.Schedule)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("FOLDERDECK_SERVER_PORT", "9999")
	t.Setenv("FOLDERDECK_STORAGE_BACKEND", "file")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.Server.Port)
	require.Equal(t, StorageBackendFile, cfg.Storage.Backend)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("FOLDERDECK_STORAGE_BACKEND", "s3")

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
}
