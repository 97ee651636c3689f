package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REPTISYNC_CONFIG_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, defaultServerAddress, cfg.ServerAddress)
	assert.Equal(t, defaultBatchSize, cfg.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, filepath.Join(dir, "data.db"), cfg.DataPath)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.File())
	assert.Empty(t, cfg.Token)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL())
}

func TestSave_ThenLoad(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	t.Setenv("REPTISYNC_CONFIG_DIR", dir)

	cfg, err := Load("")
	require.NoError(t, err)
	cfg.ServerAddress = "sync.example.com"
	cfg.Token = "tok"
	cfg.EnableTLS = true

	// Act
	require.NoError(t, cfg.Save())
	loaded, err := Load("")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "sync.example.com", loaded.ServerAddress)
	assert.Equal(t, "tok", loaded.Token)
	assert.Equal(t, "https://sync.example.com", loaded.BaseURL())

	info, err := os.Stat(cfg.File())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("REPTISYNC_CONFIG_DIR", t.TempDir())
	t.Setenv("REPTISYNC_TOKEN", "from-env")
	t.Setenv("REPTISYNC_BATCH_SIZE", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Token)
	assert.Equal(t, 7, cfg.BatchSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "zero batch", yaml: "batch_size: 0\n"},
		{name: "broken yaml", yaml: "server_address: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv("REPTISYNC_CONFIG_DIR", dir)
			file := filepath.Join(dir, "custom.yaml")
			require.NoError(t, os.WriteFile(file, []byte(tt.yaml), 0o600))

			_, err := Load(file)
			assert.Error(t, err)
		})
	}
}
