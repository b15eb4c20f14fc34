package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Slach/catalog-browser/pkg/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
backend: local-ch
catalogs: catalogs.yml
backends:
  - name: es
    kind: elasticsearch
    addresses: ["http://localhost:9200"]
    index_prefix: cat_
    retries: 2
  - name: local-ch
    kind: clickhouse
    addresses: ["localhost:9000"]
    database: catalogs
    protocol: native
ui:
  log_scale: true
  terms_size: 20
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog-browser.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	cfg, err := Load(&types.CLI{ConfigPath: path}, "")
	require.NoError(t, err)
	require.Len(t, cfg.Backends, 2)
	assert.Equal(t, filepath.Join(dir, "catalogs.yml"), cfg.CatalogsPath)
	assert.True(t, cfg.UI.LogScale)
	assert.Equal(t, 20, cfg.UI.TermsSize)
	assert.Equal(t, 50, cfg.UI.HitsSize, "default kept")
	assert.Equal(t, ":8080", cfg.Listen)

	b, err := cfg.SelectedBackend()
	require.NoError(t, err)
	assert.Equal(t, KindClickHouse, b.Kind)
	assert.Equal(t, "catalogs", b.Database)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog-browser.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	t.Setenv("CATALOG_BROWSER_BACKEND", "es")
	t.Setenv("CATALOG_BROWSER_UI_TERMS_SIZE", "7")
	t.Setenv("CATALOG_BROWSER_LISTEN", ":9999")

	cfg, err := Load(&types.CLI{ConfigPath: path}, "")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.UI.TermsSize)
	assert.Equal(t, ":9999", cfg.Listen)
	b, err := cfg.SelectedBackend()
	require.NoError(t, err)
	assert.Equal(t, "es", b.Name)
	assert.Equal(t, 2, b.Retries)
}

func TestLoadMissing(t *testing.T) {
	cfg, err := Load(&types.CLI{}, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.UI.TermsSize)

	_, err = cfg.SelectedBackend()
	assert.True(t, errors.Is(err, ErrUnknownBackend))

	_, err = Load(&types.CLI{ConfigPath: filepath.Join(t.TempDir(), "nope.yml")}, "")
	assert.Error(t, err)
}

func TestSelectedBackendFromCLI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog-browser.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	cfg, err := Load(&types.CLI{ConfigPath: path, Backend: "missing"}, "")
	require.NoError(t, err)
	_, err = cfg.SelectedBackend()
	assert.True(t, errors.Is(err, ErrUnknownBackend))
}
