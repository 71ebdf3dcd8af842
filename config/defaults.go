package config

import (
	"github.com/spf13/viper"
)

// Model roles mirror the production deployment: a careful low-temperature
// model writes pipelines, a cheaper conversational model translates and
// narrates.
const (
	DefaultGeneratorModel = "anthropic/claude-3.5-sonnet"
	DefaultNarratorModel  = "mistralai/mixtral-8x7b-instruct"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Document store defaults
	v.SetDefault("store.uri", "mongodb://localhost:27017")
	v.SetDefault("store.database", "analytics")
	v.SetDefault("store.timeout_seconds", 30)

	// OpenRouter defaults
	v.SetDefault("openrouter.generator.model", DefaultGeneratorModel)
	v.SetDefault("openrouter.generator.temperature", 0.1) // deterministic pipeline output
	v.SetDefault("openrouter.generator.max_tokens", 2000)
	v.SetDefault("openrouter.generator.timeout_seconds", 60)
	v.SetDefault("openrouter.narrator.model", DefaultNarratorModel)
	v.SetDefault("openrouter.narrator.temperature", 0.3)
	v.SetDefault("openrouter.narrator.max_tokens", 1500)
	v.SetDefault("openrouter.narrator.timeout_seconds", 45)
	v.SetDefault("openrouter.requests_per_minute", 30)

	// Engine defaults
	v.SetDefault("engine.max_attempts", 3)

	// Router defaults (weights from the production scoring heuristic)
	v.SetDefault("router.primary_weight", 3)
	v.SetDefault("router.secondary_weight", 2)
	v.SetDefault("router.min_score", 2)

	// Insight defaults
	v.SetDefault("insight.max_rows", 50)
	v.SetDefault("insight.language", "id")
}
