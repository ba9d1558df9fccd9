package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string `json:"name"`
	Port    int    `json:"port"`
	Verbose bool   `json:"verbose"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")

	err := os.WriteFile(path, []byte(`{
		// json5 comments are allowed
		name: "scraperd",
		port: 3000,
	}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "scraperd", cfg.Name)
	require.Equal(t, 3000, cfg.Port)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{name: "base", port: 3000}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{port: 4000, verbose: true}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "base", cfg.Name)
	require.Equal(t, 4000, cfg.Port)
	require.True(t, cfg.Verbose)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
