package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// Test constants
const (
	testVersion = "1.0"
)

func createTempFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	filePath := filepath.Join(dir, filename)

	if err := os.MkdirAll(filepath.Dir(filePath), 0750); err != nil {
		t.Fatalf("Failed to create directory for temp file: %v", err)
	}
	if err := os.WriteFile(filePath, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	return filePath
}

func TestLoader(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	config, err := NewLoader(configPath).LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error loading non-existent config, got: %v", err)
	}
	if config == nil {
		t.Fatal("Expected default config, got nil")
	}
	if config.Version != testVersion {
		t.Errorf("Expected default version 1.0, got %s", config.Version)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")
	loader := NewLoader(configPath)

	originalConfig := DefaultConfig()
	originalConfig.Server.Addr = ":9090"
	originalConfig.Review.MinQualityScore = 75
	originalConfig.UI.Theme = "light"

	if err := loader.SaveConfig(originalConfig); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loadedConfig, err := loader.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedConfig.Server.Addr != ":9090" {
		t.Errorf("Expected addr :9090, got %s", loadedConfig.Server.Addr)
	}
	if loadedConfig.Review.MinQualityScore != 75 {
		t.Errorf("Expected min score 75, got %d", loadedConfig.Review.MinQualityScore)
	}
	if loadedConfig.UI.Theme != "light" {
		t.Errorf("Expected theme light, got %s", loadedConfig.UI.Theme)
	}
	if loadedConfig.LLM.Timeout != originalConfig.LLM.Timeout {
		t.Errorf("Expected duration to survive a round trip, got %v", loadedConfig.LLM.Timeout)
	}
}

func TestPartialConfigKeepsDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := createTempFile(t, dir, "config.yaml", "llm:\n  model: gpt-4o\n  provider: openai\nredis:\n  ttl: 5m\n")

	config, err := NewLoader(path).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.LLM.Model != "gpt-4o" || config.LLM.Provider != ProviderOpenAI {
		t.Errorf("Expected overridden llm section, got %+v", config.LLM)
	}
	if config.LLM.MaxTokens != 4096 {
		t.Errorf("Expected default max tokens to survive, got %d", config.LLM.MaxTokens)
	}
	if config.Redis.TTL.Minutes() != 5 {
		t.Errorf("Expected 5m ttl, got %v", config.Redis.TTL)
	}
}

func TestInvalidYAMLConfig(t *testing.T) {
	dir := t.TempDir()
	path := createTempFile(t, dir, "config.yaml", "invalid: yaml: content:\n  - missing:")

	if _, err := NewLoader(path).LoadConfig(); err == nil {
		t.Error("Expected error for invalid YAML config")
	}
}

func TestInvalidConfigValidation(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	data, err := yaml.Marshal(map[string]interface{}{
		"version": testVersion,
		"llm": map[string]interface{}{
			"provider": "bard",
		},
	})
	if err != nil {
		t.Fatalf("Failed to marshal invalid config: %v", err)
	}
	path := createTempFile(t, dir, "config.yaml", string(data))

	if _, err := NewLoader(path).LoadConfig(); err == nil {
		t.Error("Expected validation error for invalid config")
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	if err := CreateDefaultConfig(configPath); err != nil {
		t.Fatalf("Failed to create default config: %v", err)
	}

	config, err := NewLoader(configPath).LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load created default config: %v", err)
	}
	if config.Version != testVersion {
		t.Errorf("Expected version 1.0, got %s", config.Version)
	}
}

func TestFindConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	createTempFile(t, dir, ".cra.yaml", "version: \"1.0\"\nserver:\n  addr: \":7000\"\n")
	t.Chdir(dir)

	loader := NewLoader("")
	config, err := loader.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to find and load config: %v", err)
	}
	if config.Server.Addr != ":7000" {
		t.Errorf("Expected addr from .cra.yaml, got %s", config.Server.Addr)
	}
	if loader.GetConfigPath() != ".cra.yaml" {
		t.Errorf("Expected loader to remember .cra.yaml, got %s", loader.GetConfigPath())
	}
}

func TestEnvironmentConfigPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	configPath := createTempFile(t, dir, "custom-config.yaml", "review:\n  max_files: 3\n")
	t.Setenv("CRA_CONFIG", configPath)

	config, err := NewLoader("").LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config from environment path: %v", err)
	}
	if config.Review.MaxFiles != 3 {
		t.Errorf("Expected max files from env config, got %d", config.Review.MaxFiles)
	}
}
