package config

import (
	"testing"
	"time"

	"github.com/fumiya-kume/cra/pkg/logger"
)

// Test constants
const (
	invalidValue = "invalid"
)

var overrideKeys = []string{
	"CRA_CONFIG", "CRA_SERVER_ADDR", "CRA_ENVIRONMENT", "CRA_LLM_PROVIDER", "CRA_LLM_MODEL",
	"CRA_LLM_BASE_URL", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "CRA_DATABASE_DSN", "DATABASE_URL",
	"REDIS_URL", "CRA_REDIS_ENABLED", "CRA_GITHUB_TOKEN", "GITHUB_TOKEN", "CRA_GITHUB_WEBHOOK_SECRET",
	"GITHUB_WEBHOOK_SECRET", "CRA_GITLAB_TOKEN", "GITLAB_TOKEN", "CRA_GITLAB_WEBHOOK_TOKEN",
	"CRA_LOG_LEVEL", "CRA_LOG_FILE", "CRA_LOG_FORMAT", "CRA_DEBUG",
}

// clearEnv blanks every variable ApplyEnvironmentOverrides reads
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range overrideKeys {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", config.Version)
	}
	if config.Server.APIPrefix != "/api/v1" {
		t.Errorf("Expected /api/v1 prefix, got %s", config.Server.APIPrefix)
	}
	if config.LLM.Provider != ProviderAnthropic {
		t.Errorf("Expected anthropic provider, got %s", config.LLM.Provider)
	}
	if config.LLM.Timeout != 60*time.Second {
		t.Errorf("Expected 60s llm timeout, got %v", config.LLM.Timeout)
	}
	if config.Review.MaxFiles != 10 || config.Review.MaxSuggestions != 15 {
		t.Errorf("Unexpected review limits %+v", config.Review)
	}
	if config.Redis.TTL != time.Hour {
		t.Errorf("Expected one hour cache TTL, got %v", config.Redis.TTL)
	}
	if got := config.Analysis.FileOptions().MaxFileSize; got != 10*1024*1024 {
		t.Errorf("Expected 10 MiB file limit, got %d", got)
	}
}

func TestConfigValidation(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("Default config should be valid, got error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"relative api prefix", func(c *Config) { c.Server.APIPrefix = "api" }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }},
		{"zero file size", func(c *Config) { c.Analysis.MaxFileSizeMB = 0 }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = invalidValue }},
		{"temperature too high", func(c *Config) { c.LLM.Temperature = 1.5 }},
		{"zero max tokens", func(c *Config) { c.LLM.MaxTokens = 0 }},
		{"short timeout", func(c *Config) { c.LLM.Timeout = time.Millisecond }},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }},
		{"redis without url", func(c *Config) { c.Redis.Enabled = true; c.Redis.URL = "" }},
		{"zero max files", func(c *Config) { c.Review.MaxFiles = 0 }},
		{"zero suggestions", func(c *Config) { c.Review.MaxSuggestions = 0 }},
		{"score above range", func(c *Config) { c.Review.MinQualityScore = 101 }},
		{"invalid theme", func(c *Config) { c.UI.Theme = invalidValue }},
		{"invalid log level", func(c *Config) { c.Logging.Level = invalidValue }},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			if err := config.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CRA_LLM_PROVIDER", ProviderOpenAI)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DATABASE_URL", "postgres://cra@localhost/cra")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("GITHUB_TOKEN", "ghp_env")
	t.Setenv("CRA_GITHUB_TOKEN", "ghp_cra")
	t.Setenv("CRA_DEBUG", "true")

	config := DefaultConfig()
	config.ApplyEnvironmentOverrides()

	if config.LLM.Provider != ProviderOpenAI || config.LLM.APIKey() != "sk-test" {
		t.Errorf("Expected openai provider with env key, got %s/%q", config.LLM.Provider, config.LLM.APIKey())
	}
	if !config.Database.IsPostgres() {
		t.Errorf("Expected postgres DSN, got %s", config.Database.DSN)
	}
	if !config.Redis.Enabled || config.Redis.URL != "redis://cache:6379/1" {
		t.Errorf("Expected REDIS_URL to enable redis, got %+v", config.Redis)
	}
	if config.GitHub.Token != "ghp_cra" {
		t.Errorf("Expected CRA_GITHUB_TOKEN to win over GITHUB_TOKEN, got %s", config.GitHub.Token)
	}
	if config.Logging.Level != logLevelDebug {
		t.Errorf("Expected debug log level, got %s", config.Logging.Level)
	}
}

func TestRedisEnabledOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("CRA_REDIS_ENABLED", "false")

	config := DefaultConfig()
	config.ApplyEnvironmentOverrides()

	if config.Redis.Enabled {
		t.Error("CRA_REDIS_ENABLED=false should disable redis")
	}
}

func TestGetConfigPaths(t *testing.T) {
	customPath := "/custom/path/config.yaml"
	t.Setenv("CRA_CONFIG", customPath)

	paths := GetConfigPaths()
	if len(paths) == 0 {
		t.Fatal("Expected at least one config path")
	}
	if paths[0] != customPath {
		t.Errorf("Expected first path to be custom path %s, got %s", customPath, paths[0])
	}
}

func TestToLoggerConfig(t *testing.T) {
	config := DefaultConfig()
	config.Logging.Level = "debug"
	config.Logging.File = "/tmp/test.log"
	config.Logging.Format = "json"
	config.Logging.Compress = true

	loggerConfig := config.ToLoggerConfig()

	if loggerConfig.Level != logger.LevelDebug {
		t.Errorf("Expected debug level, got %v", loggerConfig.Level)
	}
	if loggerConfig.LogFile != "/tmp/test.log" {
		t.Errorf("Expected log file /tmp/test.log, got %s", loggerConfig.LogFile)
	}
	if !loggerConfig.Debug {
		t.Error("Expected debug mode to be enabled")
	}
	if loggerConfig.Prefix != "cra" {
		t.Errorf("Expected prefix cra, got %s", loggerConfig.Prefix)
	}
	if loggerConfig.Format != logger.FormatJSON || !loggerConfig.Rotation || !loggerConfig.Compress {
		t.Errorf("Rotation settings not carried over: %+v", loggerConfig)
	}
}

func TestConfigValidationLevels(t *testing.T) {
	config := DefaultConfig()

	for _, level := range []ValidationLevel{ValidationLevelBasic, ValidationLevelStrict, ValidationLevelComplete} {
		result := NewConfigValidator(level).ValidateConfig(config)
		if result.HasErrors() {
			t.Errorf("level %d: default config should pass, got %v", level, result.Errors)
		}
	}

	if got := NewConfigValidator(ValidationLevelBasic).ValidateConfig(config).Warnings; len(got) != 0 {
		t.Errorf("Basic validation should not warn, got %v", got)
	}
	if got := NewConfigValidator(ValidationLevelStrict).ValidateConfig(config).Warnings; len(got) != 2 {
		t.Errorf("Expected missing key and token warnings, got %v", got)
	}

	config.Server.Environment = "production"
	if got := NewConfigValidator(ValidationLevelComplete).ValidateConfig(config).Warnings; len(got) != 6 {
		t.Errorf("Expected production warnings, got %v", got)
	}
}

func TestConfigValidatorErrors(t *testing.T) {
	validator := NewConfigValidator(ValidationLevelStrict)

	if result := validator.ValidateConfig(nil); !result.HasErrors() {
		t.Error("Expected validation error for nil config")
	}

	config := DefaultConfig()
	config.UI.Theme = invalidValue
	if result := validator.ValidateConfig(config); !result.HasErrors() {
		t.Error("Expected validation error for invalid theme")
	}
}

func TestClone(t *testing.T) {
	config := DefaultConfig()
	clone := config.Clone()
	clone.Analysis.ExcludePatterns[0] = "changed"
	clone.Review.MaxFiles = 1

	if config.Analysis.ExcludePatterns[0] == "changed" || config.Review.MaxFiles == 1 {
		t.Error("Clone must not share state with the original")
	}
}
