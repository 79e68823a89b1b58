package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/harrison/slop/internal/llm"
)

// HistoryConfig represents the run ledger configuration
type HistoryConfig struct {
	// Enabled turns iteration recording on
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path"`
}

// Config represents slop configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written
	LogDir string `yaml:"log_dir"`

	// Provider selects the completion backend (anthropic, gemini, claude-cli)
	Provider string `yaml:"provider"`

	// Model overrides the provider's default model
	Model string `yaml:"model"`

	// MaxTokens caps the length of a generated replacement
	MaxTokens int `yaml:"max_tokens"`

	// BaseURL overrides the Anthropic API endpoint
	BaseURL string `yaml:"base_url"`

	// CredentialPath is the file holding the API key (~ is expanded)
	CredentialPath string `yaml:"credential_path"`

	// ClaudePath is the claude binary used by the claude-cli provider
	ClaudePath string `yaml:"claude_path"`

	// History contains run ledger configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:       "info",
		LogDir:         ".slop/logs",
		Provider:       llm.ProviderAnthropic,
		MaxTokens:      llm.DefaultMaxTokens,
		CredentialPath: DefaultCredentialPath,
		ClaudePath:     "claude",
		History: HistoryConfig{
			Enabled: true,
			DBPath:  ".slop/history.db",
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LogDir != "" {
		cfg.LogDir = fileCfg.LogDir
	}
	if fileCfg.Provider != "" {
		cfg.Provider = fileCfg.Provider
	}
	if fileCfg.Model != "" {
		cfg.Model = fileCfg.Model
	}
	if fileCfg.MaxTokens != 0 {
		cfg.MaxTokens = fileCfg.MaxTokens
	}
	if fileCfg.BaseURL != "" {
		cfg.BaseURL = fileCfg.BaseURL
	}
	if fileCfg.ClaudePath != "" {
		cfg.ClaudePath = fileCfg.ClaudePath
	}

	// history.enabled may be explicitly false and credential_path explicitly
	// empty, so check which keys were set
	var raw struct {
		CredentialPath *string                `yaml:"credential_path"`
		History        map[string]interface{} `yaml:"history"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, nil
	}
	if raw.CredentialPath != nil {
		cfg.CredentialPath = *raw.CredentialPath
	}
	if raw.History != nil {
		if _, ok := raw.History["enabled"]; ok {
			cfg.History.Enabled = fileCfg.History.Enabled
		}
		if _, ok := raw.History["db_path"]; ok {
			cfg.History.DBPath = fileCfg.History.DBPath
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .slop/config.yaml in dir.
// If the directory or file doesn't exist, returns default configuration without error.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".slop", "config.yaml"))
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values.
func (c *Config) MergeWithFlags(logLevel, logDir, provider, model *string, noHistory *bool) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
	if provider != nil {
		c.Provider = *provider
	}
	if model != nil {
		c.Model = *model
	}
	if noHistory != nil && *noHistory {
		c.History.Enabled = false
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	switch c.Provider {
	case llm.ProviderAnthropic, llm.ProviderGemini, llm.ProviderClaudeCLI:
	default:
		return fmt.Errorf("invalid provider %q, must be one of: %s, %s, %s",
			c.Provider, llm.ProviderAnthropic, llm.ProviderGemini, llm.ProviderClaudeCLI)
	}

	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be > 0, got %d", c.MaxTokens)
	}

	if c.CredentialPath == "" && c.Provider != llm.ProviderClaudeCLI {
		return fmt.Errorf("credential_path cannot be empty")
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}

	return nil
}

// LLMOptions converts the provider settings into client options.
func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		Provider:   c.Provider,
		Model:      c.Model,
		MaxTokens:  c.MaxTokens,
		BaseURL:    c.BaseURL,
		ClaudePath: c.ClaudePath,
	}
}
