package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "mongodb://localhost:27017", cfg.Store.URI)
	assert.Equal(t, "analytics", cfg.Store.Database)
	assert.Equal(t, 30, cfg.Store.TimeoutSeconds)

	assert.Equal(t, DefaultGeneratorModel, cfg.OpenRouter.Generator.Model)
	assert.InDelta(t, 0.1, cfg.OpenRouter.Generator.Temperature, 1e-9)
	assert.Equal(t, DefaultNarratorModel, cfg.OpenRouter.Narrator.Model)
	assert.InDelta(t, 0.3, cfg.OpenRouter.Narrator.Temperature, 1e-9)
	assert.Equal(t, 30, cfg.OpenRouter.RequestsPerMinute)

	assert.Equal(t, 3, cfg.Engine.MaxAttempts)

	assert.Equal(t, 3, cfg.Router.PrimaryWeight)
	assert.Equal(t, 2, cfg.Router.SecondaryWeight)
	assert.Equal(t, 2, cfg.Router.MinScore)

	assert.Equal(t, 50, cfg.Insight.MaxRows)
	assert.Equal(t, "id", cfg.Insight.Language)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tanya.toml")
	content := `
[store]
uri = "mongodb://db.internal:27017"
database = "sales"

[openrouter]
api_key = "test-key"
requests_per_minute = 10

[openrouter.generator]
model = "some/other-model"
temperature = 0.05

[engine]
max_attempts = 5

[router]
min_score = 4

[insight]
language = "en"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db.internal:27017", cfg.Store.URI)
	assert.Equal(t, "sales", cfg.Store.Database)
	assert.Equal(t, "test-key", cfg.OpenRouter.APIKey)
	assert.Equal(t, 10, cfg.OpenRouter.RequestsPerMinute)
	assert.Equal(t, "some/other-model", cfg.OpenRouter.Generator.Model)
	assert.InDelta(t, 0.05, cfg.OpenRouter.Generator.Temperature, 1e-9)
	assert.Equal(t, 5, cfg.Engine.MaxAttempts)
	assert.Equal(t, 4, cfg.Router.MinScore)
	assert.Equal(t, "en", cfg.Insight.Language)

	// Unset keys keep their defaults.
	assert.Equal(t, DefaultNarratorModel, cfg.OpenRouter.Narrator.Model)
	assert.Equal(t, 30, cfg.Store.TimeoutSeconds)
	assert.Equal(t, 3, cfg.Router.PrimaryWeight)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoadCaches(t *testing.T) {
	Reset()
	defer Reset()

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestEnvOverride(t *testing.T) {
	Reset()
	defer Reset()

	t.Setenv("TANYA_STORE_DATABASE", "env_db")
	t.Setenv("TANYA_ENGINE_MAX_ATTEMPTS", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env_db", cfg.Store.Database)
	assert.Equal(t, 7, cfg.Engine.MaxAttempts)
}
