package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "transition.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, 60, cfg.Anthropic.RequestsPerMinute)
	assert.Equal(t, 2, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.Equal(t, 2000, cfg.Pipeline.Enricher.MaxTokens)
	assert.InDelta(t, 0.2, cfg.Pipeline.Enricher.Temperature, 0.001)
	assert.Equal(t, 60, cfg.Pipeline.Enricher.TimeoutSecs)
	assert.Equal(t, 1000, cfg.Pipeline.Classifier.MaxTokens)
	assert.Equal(t, 45, cfg.Pipeline.Classifier.TimeoutSecs)
	assert.Equal(t, 1500, cfg.Pipeline.Scorer.MaxTokens)
	assert.Equal(t, "output", cfg.Batch.OutputDir)
	assert.Equal(t, "regional_data", cfg.Regional.DataDir)
	assert.Equal(t, 2, cfg.Regional.MaxRetries)
	assert.Equal(t, 4, cfg.Regional.Concurrency)
	assert.Equal(t, 3000, cfg.Regional.Stage.MaxTokens)
	assert.Equal(t, 90, cfg.Regional.Stage.TimeoutSecs)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  database_url: runs.db
log:
  level: debug
  format: console
pipeline:
  concurrency: 8
regional:
  data_dir: out/regions
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "runs.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 8, cfg.Pipeline.Concurrency)
	assert.Equal(t, "out/regions", cfg.Regional.DataDir)
	// Defaults still apply for unset values
	assert.Equal(t, 2, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 2000, cfg.Pipeline.Enricher.MaxTokens)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  database_url: runs.db
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("TRANSITION_STORE_DATABASE_URL", "override.db")
	t.Setenv("TRANSITION_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "override.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("TRANSITION_PIPELINE_CONCURRENCY", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Pipeline.Concurrency)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.DatabaseURL = "transition.db"
	cfg.Pipeline.MaxRetries = 2
	cfg.Pipeline.Concurrency = 4
	cfg.Regional.DataDir = "regional_data"
	cfg.Regional.Concurrency = 4
	return cfg
}

func TestValidateRun_AllPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"

	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateRun_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidateRegional_NeedsDataDir(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Regional.DataDir = ""

	err := cfg.Validate("regional")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "regional.data_dir is required")
}

func TestValidateRuns_NoLLMNeeded(t *testing.T) {
	cfg := validDefaults()
	// No API key set

	assert.NoError(t, cfg.Validate("runs"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"

	cfg.Pipeline.Concurrency = 0
	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.concurrency must be between 1 and 16")

	cfg.Pipeline.Concurrency = 17
	err = cfg.Validate("run")
	assert.Error(t, err)

	cfg.Pipeline.Concurrency = 16
	assert.NoError(t, cfg.Validate("run"))

	cfg.Regional.Concurrency = 0
	err = cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "regional.concurrency must be between 1 and 16")
}

func TestValidateRetryBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"

	cfg.Pipeline.MaxRetries = 0
	err := cfg.Validate("run")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.max_retries must be >= 1")
}
