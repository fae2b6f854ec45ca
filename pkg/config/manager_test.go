package config

import (
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fumiya-kume/cra/pkg/logger"
)

func newTestManager(t *testing.T, content string) (*Manager, string) {
	t.Helper()
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	m := NewManager(NewLoader(path), logger.NewWithWriter(io.Discard, logger.LevelError))
	m.debounceDelay = 10 * time.Millisecond
	require.NoError(t, m.Load())
	return m, path
}

func TestManagerLoad(t *testing.T) {
	m, _ := newTestManager(t, "review:\n  max_files: 4\n")

	assert.Equal(t, 1, m.Version())
	assert.Equal(t, 4, m.Current().Review.MaxFiles)

	current := m.Current()
	current.Review.MaxFiles = 99
	assert.Equal(t, 4, m.Current().Review.MaxFiles, "Current must return a copy")
}

func TestManagerCallbacks(t *testing.T) {
	m, path := newTestManager(t, "review:\n  max_files: 4\n")

	var seen atomic.Int32
	m.OnChange(func(oldConfig, newConfig *Config) error {
		assert.Equal(t, 4, oldConfig.Review.MaxFiles)
		assert.Equal(t, 8, newConfig.Review.MaxFiles)
		seen.Add(1)
		return nil
	})

	require.NoError(t, os.WriteFile(path, []byte("review:\n  max_files: 8\n"), 0600))
	require.NoError(t, m.Load())

	assert.Equal(t, int32(1), seen.Load())
	assert.Equal(t, 2, m.Version())
}

func TestManagerHotReload(t *testing.T) {
	m, path := newTestManager(t, "review:\n  max_files: 4\n")
	require.NoError(t, m.StartHotReload())
	defer func() { assert.NoError(t, m.StopHotReload()) }()

	assert.Error(t, m.StartHotReload(), "second start must fail")

	require.NoError(t, os.WriteFile(path, []byte("review:\n  max_files: 6\n"), 0600))
	assert.Eventually(t, func() bool {
		return m.Current().Review.MaxFiles == 6
	}, 2*time.Second, 10*time.Millisecond)

	version := m.Version()
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: nobody\n"), 0600))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 6, m.Current().Review.MaxFiles, "invalid reload keeps the previous configuration")
	assert.Equal(t, version, m.Version())
}

func TestManagerHotReloadWithoutFile(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	m := NewManager(NewLoader(""), nil)
	require.NoError(t, m.Load())
	assert.Error(t, m.StartHotReload())
	assert.NoError(t, m.StopHotReload())
}
