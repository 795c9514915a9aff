package myai3

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/shreyasd806-spec/myAI3/models"
	"github.com/shreyasd806-spec/myAI3/stores"
)

const (
	DefaultModel          = "openai:gpt-5-mini"
	DefaultMaxSteps       = 10
	DefaultMaxDuration    = 30 * time.Second
	DefaultEmbeddingModel = "gemini-embedding-001"
)

// Config holds everything needed to serve chat requests.
type Config struct {
	// Model is "<provider>:<model>", e.g. "openai:gpt-5-mini" or "gemini:gemini-2.5-flash".
	Model              string                   `toml:"model"`
	MaxSteps           int                      `toml:"max_steps"`
	MaxDurationSeconds int                      `toml:"max_duration_seconds"`
	Generation         models.GenerationOptions `toml:"generation"`

	OpenAI     OpenAIConfig       `toml:"openai"`
	Gemini     GeminiConfig       `toml:"gemini"`
	Exa        ExaConfig          `toml:"exa"`
	Moderation ModerationConfig   `toml:"moderation"`
	Vector     VectorConfig       `toml:"vector"`
	Server     ServerConfig       `toml:"server"`
	Store      stores.StoreConfig `toml:"store"`
	Retention  RetentionConfig    `toml:"retention"`
	Log        LogConfig          `toml:"log"`
}

type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

type GeminiConfig struct {
	APIKey         string `toml:"api_key"`
	EmbeddingModel string `toml:"embedding_model"`
}

type ExaConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

type ModerationConfig struct {
	Enabled bool   `toml:"enabled"`
	Model   string `toml:"model"`
}

type VectorConfig struct {
	Enabled  bool    `toml:"enabled"`
	MinScore float64 `toml:"min_score"`
}

type ServerConfig struct {
	Port      int             `toml:"port"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig bounds chat requests per client IP. PerMinute <= 0 disables it.
type RateLimitConfig struct {
	PerMinute int `toml:"per_minute"`
	Burst     int `toml:"burst"`
}

// RetentionConfig controls the transcript cleanup job. An empty schedule
// disables it.
type RetentionConfig struct {
	Schedule   string `toml:"schedule"`
	MaxAgeDays int    `toml:"max_age_days"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Model:              DefaultModel,
		MaxSteps:           DefaultMaxSteps,
		MaxDurationSeconds: int(DefaultMaxDuration / time.Second),
		Generation:         models.DefaultGenerationOptions(),
		Gemini:             GeminiConfig{EmbeddingModel: DefaultEmbeddingModel},
		Moderation:         ModerationConfig{Enabled: true},
		Vector:             VectorConfig{MinScore: 0.3},
		Server: ServerConfig{
			Port:      3000,
			RateLimit: RateLimitConfig{PerMinute: 30, Burst: 10},
		},
		Retention: RetentionConfig{Schedule: "@daily", MaxAgeDays: 30},
		Log:       LogConfig{Level: "info", Format: "console"},
	}
}

// LoadConfig builds a Config from defaults, then the optional TOML file at
// path, then a .env file if present, then the process environment.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. getenv is injected
// so tests do not touch the process environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	setString := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v := getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString(&c.Model, "MODEL")
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&c.Gemini.EmbeddingModel, "GEMINI_EMBEDDING_MODEL")
	setString(&c.Exa.APIKey, "EXA_API_KEY")
	setString(&c.Store.Type, "DATABASE_TYPE")
	setString(&c.Store.Connection, "DATABASE_URL")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setInt(&c.Server.Port, "PORT")
	setInt(&c.MaxSteps, "MAX_STEPS")

	if v := getenv("REASONING_EFFORT"); v != "" {
		c.Generation.ReasoningEffort = models.ReasoningEffort(strings.ToLower(v))
	}
	if v := getenv("MODERATION_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Moderation.Enabled = b
		}
	}
	if v := getenv("VECTOR_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Vector.Enabled = b
		}
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if _, _, err := SplitModel(c.Model); err != nil {
		return err
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps)
	}
	if c.MaxDurationSeconds <= 0 {
		return fmt.Errorf("max_duration_seconds must be positive, got %d", c.MaxDurationSeconds)
	}
	if !c.Generation.Valid() {
		return fmt.Errorf("invalid generation options: %+v", c.Generation)
	}
	switch c.Store.Type {
	case "", "none", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}
	return nil
}

// CheckModeration rejects an enabled gate that has no key to call the
// moderation endpoint with. Serving with it would fail every chat request.
func (c *Config) CheckModeration() error {
	if c.Moderation.Enabled && c.OpenAI.APIKey == "" {
		return fmt.Errorf("moderation is enabled but OPENAI_API_KEY is not set; set it or MODERATION_ENABLED=false")
	}
	return nil
}

// MaxDuration is the wall-clock budget of one chat request.
func (c *Config) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationSeconds) * time.Second
}

// SplitModel splits "<provider>:<model>".
func SplitModel(value string) (provider, model string, err error) {
	provider, model, ok := strings.Cut(value, ":")
	if !ok || provider == "" || model == "" {
		return "", "", fmt.Errorf("model must be <provider>:<name>, got %q", value)
	}
	switch provider {
	case "openai", "gemini":
		return provider, model, nil
	}
	return "", "", fmt.Errorf("unsupported model provider: %s", provider)
}

// WithModel sets the "<provider>:<model>" string
func (c *Config) WithModel(model string) *Config {
	c.Model = model
	return c
}

// WithStore sets the transcript store configuration
func (c *Config) WithStore(storeType, connection string) *Config {
	c.Store = *stores.NewStoreConfig(storeType, connection)
	return c
}

// WithSQLiteStore enables transcript persistence in a SQLite file
func (c *Config) WithSQLiteStore(dbPath string) *Config {
	return c.WithStore("sqlite", dbPath)
}

// WithModeration toggles the moderation gate
func (c *Config) WithModeration(enabled bool) *Config {
	c.Moderation.Enabled = enabled
	return c
}
