// Package config loads tanya configuration via Viper.
//
// Precedence (lowest to highest): defaults < /etc/tanya/tanya.toml <
// ~/.tanya/tanya.toml < project tanya.toml < TANYA_* environment variables.
package config

// Config is the root configuration for the query pipeline.
type Config struct {
	Store      StoreConfig      `mapstructure:"store"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Router     RouterConfig     `mapstructure:"router"`
	Insight    InsightConfig    `mapstructure:"insight"`
}

// StoreConfig configures the document store connection.
type StoreConfig struct {
	URI            string `mapstructure:"uri"`             // Mongo connection URI
	Database       string `mapstructure:"database"`        // database holding the pre-aggregated collections
	TimeoutSeconds int    `mapstructure:"timeout_seconds"` // per-pipeline execution timeout
}

// OpenRouterConfig configures the two model roles.
// The generator writes aggregation pipelines; the narrator translates
// questions and writes the business analysis.
type OpenRouterConfig struct {
	APIKey    string      `mapstructure:"api_key"`
	Generator ModelConfig `mapstructure:"generator"`
	Narrator  ModelConfig `mapstructure:"narrator"`

	// RequestsPerMinute bounds outbound model calls across both roles.
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// ModelConfig configures a single model role.
type ModelConfig struct {
	Model          string  `mapstructure:"model"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// EngineConfig configures the execution engine retry loop.
type EngineConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"` // generation attempts per request (default: 3)
}

// RouterConfig configures collection routing.
type RouterConfig struct {
	PrimaryWeight   int `mapstructure:"primary_weight"`   // score per primary synonym hit (default: 3)
	SecondaryWeight int `mapstructure:"secondary_weight"` // score per secondary synonym hit (default: 2)
	MinScore        int `mapstructure:"min_score"`        // relevance threshold; below it the router answers "cannot answer" (default: 2)
}

// InsightConfig configures the narrative generator.
type InsightConfig struct {
	MaxRows  int    `mapstructure:"max_rows"` // rows included in the narrative prompt (default: 50)
	Language string `mapstructure:"language"` // default narrative language (default: "id")
}
