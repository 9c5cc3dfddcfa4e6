// Package config loads process configuration from an optional YAML file
// overlaid with environment variables. A .env file is honored when present.
// Configuration is read once at startup and treated as immutable for the
// process lifetime.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ModelConfig selects the LLM provider for the process. The provider is
// resolved once; nothing downstream branches on it per call.
type ModelConfig struct {
	// Provider is "openai", "anthropic" or "mock". OpenAI-compatible
	// endpoints (Ollama, OpenRouter) use "openai" with a BaseURL.
	Provider string `yaml:"provider"`

	// Primary is the model used by generation nodes.
	Primary string `yaml:"primary"`

	// Reasoner is the model used by planning-heavy nodes. Falls back to
	// Primary when empty.
	Reasoner string `yaml:"reasoner"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey is only read from the environment (LLM_API_KEY), never from
	// the YAML file.
	APIKey string `yaml:"-"`

	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// StoreConfig selects the checkpoint backend.
type StoreConfig struct {
	// Backend is "memory", "sqlite" or "redis".
	Backend string `yaml:"backend"`

	// Path is the sqlite database file.
	Path string `yaml:"path"`

	// RedisURL is the redis connection URL, e.g. "redis://localhost:6379/0".
	RedisURL string `yaml:"redis_url"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// EngineConfig tunes turn execution.
type EngineConfig struct {
	// MaxAttempts bounds model-backed node attempts per turn.
	MaxAttempts int `yaml:"max_attempts"`

	// RetryBackoff is the base delay between attempts.
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// MaxIterations guards against routing cycles within one turn.
	MaxIterations int `yaml:"max_iterations"`
}

// Config is the full process configuration.
type Config struct {
	Model  ModelConfig  `yaml:"model"`
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:    "openai",
			Primary:     "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Store: StoreConfig{
			Backend: "memory",
			Path:    "agentforge.db",
		},
		Server: ServerConfig{
			Addr: ":8100",
		},
		Engine: EngineConfig{
			MaxAttempts:   3,
			RetryBackoff:  250 * time.Millisecond,
			MaxIterations: 25,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment variables. A .env file in the
// working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func (c *Config) applyEnv() {
	setString(&c.Model.Provider, "LLM_PROVIDER")
	setString(&c.Model.Primary, "PRIMARY_MODEL")
	setString(&c.Model.Reasoner, "REASONER_MODEL")
	setString(&c.Model.BaseURL, "BASE_URL")
	setString(&c.Model.APIKey, "LLM_API_KEY")
	setString(&c.Store.Backend, "STORE_BACKEND")
	setString(&c.Store.Path, "SQLITE_PATH")
	setString(&c.Store.RedisURL, "REDIS_URL")
	setString(&c.Server.Addr, "SERVER_ADDR")

	if v := os.Getenv("MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Engine.MaxAttempts = n
		}
	}
	if v := os.Getenv("RETRY_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Engine.RetryBackoff = d
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate rejects configurations that could only fail later at runtime.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}

	switch c.Store.Backend {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == "redis" && c.Store.RedisURL == "" {
		return fmt.Errorf("redis backend requires a redis url")
	}

	if c.Engine.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1")
	}
	if c.Engine.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be at least 1")
	}
	return nil
}

// ReasonerModel returns the reasoner model id, falling back to the primary.
func (c *Config) ReasonerModel() string {
	if c.Model.Reasoner != "" {
		return c.Model.Reasoner
	}
	return c.Model.Primary
}
