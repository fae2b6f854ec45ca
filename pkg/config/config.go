// Package config provides configuration management and settings for cra
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fumiya-kume/cra/pkg/analysis"
	"github.com/fumiya-kume/cra/pkg/logger"
)

// Log level constants
const (
	logLevelDebug = "debug"
)

// LLM providers
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// ValidationLevel represents the level of configuration validation
type ValidationLevel int

const (
	ValidationLevelBasic ValidationLevel = iota
	ValidationLevelStrict
	ValidationLevelComplete
)

// ConfigValidator validates configuration
type ConfigValidator struct {
	level ValidationLevel
}

// ConfigValidationResult contains validation results
type ConfigValidationResult struct {
	Errors   []error
	Warnings []string
}

// HasErrors returns true if there are validation errors
func (cvr *ConfigValidationResult) HasErrors() bool {
	return len(cvr.Errors) > 0
}

// NewConfigValidator creates a new config validator
func NewConfigValidator(level ValidationLevel) *ConfigValidator {
	return &ConfigValidator{level: level}
}

// ValidateConfig validates a configuration. Basic level reports hard errors only;
// strict adds warnings about missing credentials; complete adds deployment checks.
func (cv *ConfigValidator) ValidateConfig(config *Config) *ConfigValidationResult {
	result := &ConfigValidationResult{
		Errors:   []error{},
		Warnings: []string{},
	}

	if config == nil {
		result.Errors = append(result.Errors, fmt.Errorf("config cannot be nil"))
		return result
	}

	if err := config.Validate(); err != nil {
		result.Errors = append(result.Errors, err)
	}

	cv.validateStrictLevel(config, result)
	cv.validateCompleteLevel(config, result)

	return result
}

func (cv *ConfigValidator) validateStrictLevel(config *Config, result *ConfigValidationResult) {
	if cv.level < ValidationLevelStrict {
		return
	}

	if config.LLM.APIKey() == "" {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no API key for %s; AI review runs in mock mode", config.LLM.Provider))
	}
	if config.GitHub.Token == "" {
		result.Warnings = append(result.Warnings, "GitHub token not set; falling back to the gh credential store")
	}
}

func (cv *ConfigValidator) validateCompleteLevel(config *Config, result *ConfigValidationResult) {
	if cv.level < ValidationLevelComplete {
		return
	}

	if !config.IsProduction() {
		return
	}
	if config.GitHub.WebhookSecret == "" {
		result.Warnings = append(result.Warnings, "github.webhook_secret is empty; webhook signatures are not verified")
	}
	if config.GitLab.WebhookToken == "" {
		result.Warnings = append(result.Warnings, "gitlab.webhook_token is empty; GitLab webhooks are not authenticated")
	}
	if !config.Database.IsPostgres() {
		result.Warnings = append(result.Warnings, "production environment is using SQLite")
	}
	if !config.Redis.Enabled {
		result.Warnings = append(result.Warnings, "redis disabled; review cache is per process")
	}
}

// Config represents the application configuration
type Config struct {
	Version string `yaml:"version"`

	Server   ServerConfig   `yaml:"server"`
	Analysis AnalysisConfig `yaml:"analysis"`
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	GitHub   GitHubConfig   `yaml:"github"`
	GitLab   GitLabConfig   `yaml:"gitlab"`
	Review   ReviewConfig   `yaml:"review"`
	UI       UIConfig       `yaml:"ui"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	APIPrefix       string        `yaml:"api_prefix"`
	Environment     string        `yaml:"environment"`
	RateLimit       float64       `yaml:"rate_limit"` // requests per second per client
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AnalysisConfig holds file analysis limits
type AnalysisConfig struct {
	MaxFileSizeMB   int      `yaml:"max_file_size_mb"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

// LLMConfig holds AI reviewer settings
type LLMConfig struct {
	Provider        string        `yaml:"provider"`
	Model           string        `yaml:"model"`
	Temperature     float64       `yaml:"temperature"`
	MaxTokens       int           `yaml:"max_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
	BaseURL         string        `yaml:"base_url,omitempty"`
	AnthropicAPIKey string        `yaml:"anthropic_api_key,omitempty"`
	OpenAIAPIKey    string        `yaml:"openai_api_key,omitempty"`
}

// DatabaseConfig holds persistence settings
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	LogQueries   bool   `yaml:"log_queries"`
}

// RedisConfig holds cache settings
type RedisConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	TTL     time.Duration `yaml:"ttl"`
}

// GitHubConfig holds GitHub integration settings
type GitHubConfig struct {
	Token           string `yaml:"token,omitempty"`
	WebhookSecret   string `yaml:"webhook_secret,omitempty"`
	BaseURL         string `yaml:"base_url,omitempty"`
	RequestsPerHour int    `yaml:"requests_per_hour"`
}

// GitLabConfig holds GitLab webhook settings
type GitLabConfig struct {
	Token        string `yaml:"token,omitempty"`
	WebhookToken string `yaml:"webhook_token,omitempty"`
	BaseURL      string `yaml:"base_url"`
}

// ReviewConfig holds review orchestration limits
type ReviewConfig struct {
	MaxFiles        int  `yaml:"max_files"`
	MaxSuggestions  int  `yaml:"max_suggestions"`
	MaxIssues       int  `yaml:"max_issues"`
	MinQualityScore int  `yaml:"min_quality_score"`
	PostComments    bool `yaml:"post_comments"`
	EnableAI        bool `yaml:"enable_ai"`
}

// UIConfig holds user interface settings
type UIConfig struct {
	Theme    string      `yaml:"theme"`
	Markdown bool        `yaml:"markdown"`
	NoColor  bool        `yaml:"no_color"`
	Sound    SoundConfig `yaml:"sound"`
}

// SoundConfig holds notification settings for watch mode
type SoundConfig struct {
	Enabled       bool `yaml:"enabled"`
	Notifications bool `yaml:"notifications"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Format     string `yaml:"format"`
	Rotation   bool   `yaml:"rotation"`
	MaxSize    int    `yaml:"max_size"`
	MaxAge     int    `yaml:"max_age"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	home := homeDir()

	return &Config{
		Version: "1.0",

		Server: ServerConfig{
			Addr:            ":8000",
			APIPrefix:       "/api/v1",
			Environment:     "development",
			RateLimit:       5,
			RateLimitBurst:  20,
			ShutdownTimeout: 10 * time.Second,
		},

		Analysis: AnalysisConfig{
			MaxFileSizeMB:   10,
			ExcludePatterns: append([]string(nil), analysis.DefaultExcludePatterns...),
		},

		LLM: LLMConfig{
			Provider:    ProviderAnthropic,
			Model:       "claude-3-5-sonnet-20241022",
			Temperature: 0.2,
			MaxTokens:   4096,
			Timeout:     60 * time.Second,
		},

		Database: DatabaseConfig{
			DSN:          filepath.Join(home, ".cra", "cra.db"),
			MaxOpenConns: 10,
		},

		Redis: RedisConfig{
			Enabled: false,
			URL:     "redis://localhost:6379/0",
			TTL:     time.Hour,
		},

		GitHub: GitHubConfig{
			RequestsPerHour: 5000,
		},

		GitLab: GitLabConfig{
			BaseURL: "https://gitlab.com",
		},

		Review: ReviewConfig{
			MaxFiles:        10,
			MaxSuggestions:  15,
			MaxIssues:       20,
			MinQualityScore: 60,
			PostComments:    false,
			EnableAI:        true,
		},

		UI: UIConfig{
			Theme:    "dark",
			Markdown: true,
			Sound: SoundConfig{
				Enabled:       false,
				Notifications: true,
			},
		},

		Logging: LoggingConfig{
			Level:      "info",
			File:       filepath.Join(home, ".cra", "logs", "cra.log"),
			Format:     "text",
			Rotation:   true,
			MaxSize:    100, // MB
			MaxAge:     30,  // days
			MaxBackups: 5,
		},
	}
}

// GetConfigPaths returns the list of configuration file paths to check
func GetConfigPaths() []string {
	home := homeDir()

	paths := []string{
		".cra.yaml",
		".cra.yml",
		filepath.Join(home, ".cra.yaml"),
		filepath.Join(home, ".cra.yml"),
		filepath.Join(home, ".config", "cra", "config.yaml"),
		filepath.Join(home, ".config", "cra", "config.yml"),
	}

	if envPath := os.Getenv("CRA_CONFIG"); envPath != "" {
		paths = append([]string{envPath}, paths...)
	}

	return paths
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	if !strings.HasPrefix(c.Server.APIPrefix, "/") {
		return fmt.Errorf("server.api_prefix must start with '/'")
	}
	if c.Server.RateLimit < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("server.rate_limit and server.rate_limit_burst cannot be negative")
	}

	if c.Analysis.MaxFileSizeMB < 1 {
		return fmt.Errorf("analysis.max_file_size_mb must be at least 1")
	}

	if c.LLM.Provider != ProviderAnthropic && c.LLM.Provider != ProviderOpenAI {
		return fmt.Errorf("llm.provider must be '%s' or '%s'", ProviderAnthropic, ProviderOpenAI)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("llm.temperature must be between 0 and 1")
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("llm.max_tokens must be at least 1")
	}
	if c.LLM.Timeout < time.Second {
		return fmt.Errorf("llm.timeout must be at least 1 second")
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn cannot be empty")
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required when redis is enabled")
	}

	if c.Review.MaxFiles < 1 {
		return fmt.Errorf("review.max_files must be at least 1")
	}
	if c.Review.MaxSuggestions < 1 {
		return fmt.Errorf("review.max_suggestions must be at least 1")
	}
	if c.Review.MinQualityScore < 0 || c.Review.MinQualityScore > analysis.MaxQualityScore {
		return fmt.Errorf("review.min_quality_score must be between 0 and %d", analysis.MaxQualityScore)
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[c.UI.Theme] {
		return fmt.Errorf("ui.theme must be one of: dark, light, auto")
	}

	validLevels := map[string]bool{
		logLevelDebug: true,
		"info":        true,
		"warn":        true,
		"error":       true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json'")
	}

	return nil
}

// ApplyEnvironmentOverrides applies environment variable overrides to the configuration
func (c *Config) ApplyEnvironmentOverrides() {
	setString := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := os.Getenv(key); v != "" {
				*dst = v
				return
			}
		}
	}

	setString(&c.Server.Addr, "CRA_SERVER_ADDR")
	setString(&c.Server.Environment, "CRA_ENVIRONMENT")

	setString(&c.LLM.Provider, "CRA_LLM_PROVIDER")
	setString(&c.LLM.Model, "CRA_LLM_MODEL")
	setString(&c.LLM.BaseURL, "CRA_LLM_BASE_URL")
	setString(&c.LLM.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&c.LLM.OpenAIAPIKey, "OPENAI_API_KEY")

	setString(&c.Database.DSN, "CRA_DATABASE_DSN", "DATABASE_URL")

	if url := os.Getenv("REDIS_URL"); url != "" {
		c.Redis.URL = url
		c.Redis.Enabled = true
	}
	if enabled, err := strconv.ParseBool(os.Getenv("CRA_REDIS_ENABLED")); err == nil {
		c.Redis.Enabled = enabled
	}

	setString(&c.GitHub.Token, "CRA_GITHUB_TOKEN", "GITHUB_TOKEN")
	setString(&c.GitHub.WebhookSecret, "CRA_GITHUB_WEBHOOK_SECRET", "GITHUB_WEBHOOK_SECRET")
	setString(&c.GitLab.Token, "CRA_GITLAB_TOKEN", "GITLAB_TOKEN")
	setString(&c.GitLab.WebhookToken, "CRA_GITLAB_WEBHOOK_TOKEN")

	setString(&c.Logging.Level, "CRA_LOG_LEVEL")
	setString(&c.Logging.File, "CRA_LOG_FILE")
	setString(&c.Logging.Format, "CRA_LOG_FORMAT")

	if os.Getenv("CRA_DEBUG") == "true" {
		c.Logging.Level = logLevelDebug
	}
}

// IsProduction reports whether the server runs in a production environment
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	clone := *c
	clone.Analysis.ExcludePatterns = append([]string(nil), c.Analysis.ExcludePatterns...)
	return &clone
}

// APIKey returns the key for the configured provider
func (l LLMConfig) APIKey() string {
	if l.Provider == ProviderOpenAI {
		return l.OpenAIAPIKey
	}
	return l.AnthropicAPIKey
}

// IsPostgres reports whether the DSN selects the postgres driver
func (d DatabaseConfig) IsPostgres() bool {
	return strings.HasPrefix(d.DSN, "postgres://") || strings.HasPrefix(d.DSN, "postgresql://")
}

// FileOptions converts the analysis section for the file analyzer
func (a AnalysisConfig) FileOptions() analysis.FileOptions {
	return analysis.FileOptions{
		MaxFileSize:     int64(a.MaxFileSizeMB) * 1024 * 1024,
		ExcludePatterns: a.ExcludePatterns,
	}
}

// ToLoggerConfig converts the logging configuration to logger.Config
func (c *Config) ToLoggerConfig() logger.Config {
	return logger.Config{
		Level:      logger.ParseLevel(c.Logging.Level),
		LogFile:    c.Logging.File,
		Debug:      c.Logging.Level == logLevelDebug,
		Timestamp:  true,
		Prefix:     "cra",
		Format:     logger.Format(c.Logging.Format),
		Rotation:   c.Logging.Rotation,
		MaxSizeMB:  c.Logging.MaxSize,
		MaxAgeDays: c.Logging.MaxAge,
		MaxBackups: c.Logging.MaxBackups,
		Compress:   c.Logging.Compress,
	}
}
