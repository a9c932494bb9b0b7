package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the promptsgo API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Search     SearchConfig     `yaml:"search"`
	Playground PlaygroundConfig `yaml:"playground"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Empty APIKeys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	ClientName       string   `yaml:"client_name"` // reported in CLIENT LIST (default: promptsgo)
}

// SearchConfig holds catalog search and pagination settings.
type SearchConfig struct {
	DefaultPageSize int     `yaml:"default_page_size"`
	MaxPageSize     int     `yaml:"max_page_size"`
	SuggestLimit    int     `yaml:"suggest_limit"`
	FuzzyWordRatio  float64 `yaml:"fuzzy_word_ratio"`
	TopTags         int     `yaml:"top_tags"`
}

// PlaygroundConfig holds the completion provider used to run prompts.
// An empty APIKey disables the playground.
type PlaygroundConfig struct {
	Provider     string       `yaml:"provider"`
	BaseURL      string       `yaml:"base_url"`
	APIKey       string       `yaml:"api_key"`
	Model        string       `yaml:"model"`
	MaxTokens    int          `yaml:"max_tokens"`
	Temperature  float32      `yaml:"temperature"`
	TimeoutSec   int          `yaml:"timeout_sec"`
	SystemPrompt string       `yaml:"system_prompt"`
	Budget       BudgetConfig `yaml:"budget"`
}

// Enabled reports whether a completion provider is configured.
func (p PlaygroundConfig) Enabled() bool { return p.APIKey != "" }

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60 // playground runs wait on the model
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if c.Search.SuggestLimit <= 0 {
		c.Search.SuggestLimit = 8
	}
	if c.Search.FuzzyWordRatio <= 0 {
		c.Search.FuzzyWordRatio = 0.7
	}
	if c.Search.TopTags <= 0 {
		c.Search.TopTags = 20
	}
	if c.Playground.Provider == "" {
		c.Playground.Provider = "openai"
	}
	if c.Playground.Model == "" {
		c.Playground.Model = "gpt-4o-mini"
	}
	if c.Playground.MaxTokens <= 0 {
		c.Playground.MaxTokens = 1024
	}
	if c.Playground.TimeoutSec <= 0 {
		c.Playground.TimeoutSec = 45
	}
	if c.Playground.Budget.Action == "" {
		c.Playground.Budget.Action = "warn"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "promptsgo:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "valkey", "redis", "memory":
	default:
		return fmt.Errorf("database.driver must be \"valkey\", \"redis\" or \"memory\", got %q", c.Database.Driver)
	}
	if c.Database.Driver != "memory" && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf(
			"search.default_page_size (%d) exceeds search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize,
		)
	}
	if c.Search.FuzzyWordRatio > 1 {
		return fmt.Errorf("search.fuzzy_word_ratio must be in (0, 1], got %g", c.Search.FuzzyWordRatio)
	}
	if c.Playground.Temperature < 0 || c.Playground.Temperature > 2 {
		return fmt.Errorf("playground.temperature must be between 0 and 2, got %g", c.Playground.Temperature)
	}
	switch c.Playground.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf(
			"playground.budget.action must be \"warn\" or \"reject\", got %q",
			c.Playground.Budget.Action,
		)
	}
	if c.Playground.Budget.DailyTokenLimit < 0 || c.Playground.Budget.MonthlyTokenLimit < 0 {
		return fmt.Errorf("playground.budget limits must be non-negative")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
