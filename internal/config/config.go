// ABOUTME: Configuration loading and parsing for the shopmcp binaries
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete shopmcp configuration.
// The server, CLI and web client binaries all read from the same file and
// pick out the sections they need.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	AI         AIConfig         `yaml:"ai"`
	MCP        MCPConfig        `yaml:"mcp"`
	Search     SearchConfig     `yaml:"search"`
	Weather    WeatherConfig    `yaml:"weather"`
	Automation AutomationConfig `yaml:"automation"`
	Retry      RetryConfig      `yaml:"retry"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the MCP server listen address and per-tool timeout.
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	ToolTimeout    time.Duration `yaml:"-"`
	ToolTimeoutRaw string        `yaml:"tool_timeout"`
}

// DatabaseConfig holds the shop store configuration.
// An empty or ":memory:" path selects the in-memory store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AIConfig holds chat model connection settings.
type AIConfig struct {
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicAPIURL string `yaml:"anthropic_api_url"`
	Model           string `yaml:"model"`
	MaxTokens       int    `yaml:"max_tokens"`
}

// MCPConfig holds client-side settings for reaching the MCP server.
type MCPConfig struct {
	ServerURL string `yaml:"server_url"`
}

// SearchConfig holds LangSearch API settings.
type SearchConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// WeatherConfig holds the weather backend settings.
type WeatherConfig struct {
	BaseURL string `yaml:"base_url"`
}

// AutomationConfig holds browser automation settings.
type AutomationConfig struct {
	Headless bool `yaml:"headless"`

	NavTimeout    time.Duration `yaml:"-"`
	NavTimeoutRaw string        `yaml:"nav_timeout"`
}

// RetryConfig holds tool dispatch retry settings.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`

	Delay    time.Duration `yaml:"-"`
	DelayRaw string        `yaml:"delay"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied by Parse when the corresponding field is absent.
const (
	DefaultHTTPAddr    = "localhost:8083"
	DefaultModel       = "claude-3-5-sonnet-20240620"
	DefaultMaxTokens   = 1000
	DefaultServerURL   = "http://localhost:8083/sse"
	DefaultSearchURL   = "https://api.langsearch.com"
	DefaultWeatherURL  = "https://wttr.in"
	DefaultToolTimeout = 30 * time.Second
	DefaultNavTimeout  = 30 * time.Second
	DefaultRetryDelay  = 2 * time.Second
	DefaultMaxAttempts = 3
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values and defaults applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse parses raw YAML configuration bytes. Exposed separately so callers
// with config from a non-file source (tests, embedded defaults) can reuse
// the expansion and validation logic.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns a Config with all defaults applied and no file loaded.
// Used when the config file does not exist: everything can come from env vars.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Server.ToolTimeout == 0 {
		c.Server.ToolTimeout = DefaultToolTimeout
	}
	if c.AI.AnthropicAPIKey == "" {
		c.AI.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if c.AI.AnthropicAPIURL == "" {
		c.AI.AnthropicAPIURL = os.Getenv("ANTHROPIC_API_URL")
	}
	if c.AI.Model == "" {
		c.AI.Model = DefaultModel
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = DefaultMaxTokens
	}
	if c.MCP.ServerURL == "" {
		if env := os.Getenv("MCP_SERVER_URL"); env != "" {
			c.MCP.ServerURL = env
		} else {
			c.MCP.ServerURL = DefaultServerURL
		}
	}
	if c.Search.APIKey == "" {
		c.Search.APIKey = os.Getenv("LANGSEARCH_API_KEY")
	}
	if c.Search.BaseURL == "" {
		c.Search.BaseURL = DefaultSearchURL
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = DefaultWeatherURL
	}
	if c.Automation.NavTimeout == 0 {
		c.Automation.NavTimeout = DefaultNavTimeout
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Retry.Delay == 0 {
		c.Retry.Delay = DefaultRetryDelay
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment
// variable values. Unset variables are replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.ToolTimeoutRaw != "" {
		cfg.Server.ToolTimeout, err = time.ParseDuration(cfg.Server.ToolTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing tool_timeout %q: %w", cfg.Server.ToolTimeoutRaw, err)
		}
	}

	if cfg.Automation.NavTimeoutRaw != "" {
		cfg.Automation.NavTimeout, err = time.ParseDuration(cfg.Automation.NavTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing nav_timeout %q: %w", cfg.Automation.NavTimeoutRaw, err)
		}
	}

	if cfg.Retry.DelayRaw != "" {
		cfg.Retry.Delay, err = time.ParseDuration(cfg.Retry.DelayRaw)
		if err != nil {
			return fmt.Errorf("parsing retry delay %q: %w", cfg.Retry.DelayRaw, err)
		}
	}

	return nil
}
