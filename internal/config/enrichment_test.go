package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEnrichmentConfigDefaultsWhenFileMissing(t *testing.T) {
	holder, err := NewEnrichmentConfigHolder(Config{
		EnrichmentConfigPath: filepath.Join(t.TempDir(), "missing.yml"),
	}, zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, DefaultEnrichmentConfig().Schedule, cfg.Schedule)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, GeoProviderIPAPI, cfg.Provider)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestEnrichmentConfigReadsStaticDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrichment.yml")
	content := `
enrichment:
  schedule: "*/5 * * * *"
  batchSize: 50
  timeout: 30s
  provider: static
  static:
    - query: 1.1.1.1
      countryCode: AU
      region: NSW
    - query: 8.8.8.8
      countryCode: US
      region: CA
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	holder, err := NewEnrichmentConfigHolder(Config{EnrichmentConfigPath: path}, zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "*/5 * * * *", cfg.Schedule)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, GeoProviderStatic, cfg.Provider)
	require.Len(t, cfg.Static, 2)
	assert.Equal(t, StaticGeoRecord{Query: "1.1.1.1", CountryCode: "AU", Region: "NSW"}, cfg.Static[0])
}

func TestEnrichmentConfigRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrichment.yml")
	require.NoError(t, os.WriteFile(path, []byte("enrichment:\n  provider: carrier-pigeon\n"), 0o600))

	_, err := NewEnrichmentConfigHolder(Config{EnrichmentConfigPath: path}, zap.NewNop())
	require.Error(t, err)
}

func TestEnrichmentConfigRejectsInvalidSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrichment.yml")
	require.NoError(t, os.WriteFile(path, []byte("enrichment:\n  schedule: \"every hour\"\n"), 0o600))

	_, err := NewEnrichmentConfigHolder(Config{EnrichmentConfigPath: path}, zap.NewNop())
	require.Error(t, err)
}

func TestEnrichmentConfigKeepsDefaultsForOmittedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrichment.yml")
	content := `
enrichment:
  provider: static
  static:
    - query: 1.1.1.1
      countryCode: AU
      region: NSW
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	holder, err := NewEnrichmentConfigHolder(Config{EnrichmentConfigPath: path}, zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	defaults := DefaultEnrichmentConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, GeoProviderStatic, cfg.Provider)
	assert.Equal(t, defaults.Schedule, cfg.Schedule)
	assert.Equal(t, defaults.Timeout, cfg.Timeout)
	assert.Equal(t, defaults.RequestTimeout, cfg.RequestTimeout)
}

func TestEnrichmentConfigHonoursExplicitDisable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrichment.yml")
	require.NoError(t, os.WriteFile(path, []byte("enrichment:\n  enabled: false\n"), 0o600))

	holder, err := NewEnrichmentConfigHolder(Config{EnrichmentConfigPath: path}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, holder.Get().Enabled)
}
