package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/fumiya-kume/cra/pkg/errors"
)

// Loader reads and writes the YAML configuration file. Values missing from
// the file keep their defaults; environment overrides are applied last.
type Loader struct {
	configPath string
}

// NewLoader creates a loader for path. An empty path searches GetConfigPaths
// on the first load and remembers the file it found.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// LoadConfig returns the effective configuration. A missing file yields the
// defaults; a file that does not parse or validate is a configuration error.
func (l *Loader) LoadConfig() (*Config, error) {
	if l.configPath == "" {
		l.configPath = findConfigFile(GetConfigPaths())
	}

	cfg := DefaultConfig()
	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		switch {
		case stderrors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, errors.NewError(errors.ErrorTypeConfiguration).
				WithMessagef("failed to read config file %s", l.configPath).
				WithCause(err).
				WithContext("path", l.configPath).
				Build()
		default:
			if err := decodeYAML(data, cfg); err != nil {
				return nil, errors.NewError(errors.ErrorTypeConfiguration).
					WithMessagef("failed to parse config file %s: %v", l.configPath, err).
					WithCause(err).
					WithContext("path", l.configPath).
					WithSuggestion("Run 'cra config init --force' to write a fresh file").
					Build()
			}
		}
	}

	cfg.ApplyEnvironmentOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewError(errors.ErrorTypeConfiguration).
			WithMessagef("invalid configuration: %v", err).
			WithCause(err).
			WithContext("path", l.configPath).
			Build()
	}
	return cfg, nil
}

// decodeYAML decodes over the defaults. An empty document leaves cfg untouched.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// SaveConfig writes cfg as YAML with owner-only permissions
func (l *Loader) SaveConfig(cfg *Config) error {
	if l.configPath == "" {
		l.configPath = filepath.Join(homeDir(), ".config", "cra", "config.yaml")
	}

	dir := filepath.Dir(l.configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.FileSystemError(dir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(l.configPath, data, 0600); err != nil {
		return errors.FileSystemError(l.configPath, err)
	}
	return nil
}

// GetConfigPath returns the file in use, or "" when only defaults apply
func (l *Loader) GetConfigPath() string {
	return l.configPath
}

func findConfigFile(candidates []string) string {
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// CreateDefaultConfig writes the default configuration to path.
// Secrets are never written because they are empty in the defaults.
func CreateDefaultConfig(path string) error {
	return NewLoader(path).SaveConfig(DefaultConfig())
}
