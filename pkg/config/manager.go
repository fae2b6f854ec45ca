package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fumiya-kume/cra/pkg/logger"
)

// ChangeCallback is called after a successful reload
type ChangeCallback func(oldConfig, newConfig *Config) error

// Manager holds the active configuration and reloads it when the file changes.
// A reload that fails to parse or validate keeps the previous configuration.
type Manager struct {
	mu        sync.RWMutex
	loader    *Loader
	config    *Config
	version   int
	callbacks []ChangeCallback

	watcher       *fsnotify.Watcher
	debounceDelay time.Duration
	done          chan struct{}
	logger        *logger.Logger
}

// NewManager creates a manager around loader
func NewManager(loader *Loader, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Manager{
		loader:        loader,
		config:        DefaultConfig(),
		debounceDelay: 500 * time.Millisecond,
		logger:        log.WithPrefix("config"),
	}
}

// Load reads the configuration and notifies callbacks
func (m *Manager) Load() error {
	config, err := m.loader.LoadConfig()
	if err != nil {
		return err
	}

	m.mu.Lock()
	oldConfig := m.config
	m.config = config
	m.version++
	version := m.version
	callbacks := append([]ChangeCallback(nil), m.callbacks...)
	m.mu.Unlock()

	for _, callback := range callbacks {
		if err := callback(oldConfig, config); err != nil {
			m.logger.Error("Configuration change callback failed (error: %v)", err)
		}
	}

	m.logger.Debug("Configuration loaded (path: %s, version: %d)", m.loader.GetConfigPath(), version)
	return nil
}

// Current returns a copy of the active configuration
func (m *Manager) Current() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Clone()
}

// Version increments on every successful load
func (m *Manager) Version() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// OnChange registers a callback for configuration changes
func (m *Manager) OnChange(callback ChangeCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// StartHotReload watches the loaded config file. Its directory is watched so
// editors that replace the file on save are noticed too.
func (m *Manager) StartHotReload() error {
	if m.watcher != nil {
		return fmt.Errorf("hot reload already started")
	}

	path := m.loader.GetConfigPath()
	if path == "" {
		return fmt.Errorf("no configuration file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	m.watcher = watcher
	m.done = make(chan struct{})
	go m.watchConfigChanges(watcher, filepath.Clean(path), m.done)

	m.logger.Info("Configuration hot reload started (path: %s)", path)
	return nil
}

// StopHotReload stops watching and waits for the watch loop to exit
func (m *Manager) StopHotReload() error {
	if m.watcher == nil {
		return nil
	}

	err := m.watcher.Close()
	<-m.done
	m.watcher = nil

	m.logger.Info("Configuration hot reload stopped")
	return err
}

func (m *Manager) watchConfigChanges(watcher *fsnotify.Watcher, path string, done chan struct{}) {
	defer close(done)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(m.debounceDelay, func() {
				m.logger.Info("Configuration file changed, reloading (file: %s)", path)
				if err := m.Load(); err != nil {
					m.logger.Error("Failed to reload configuration (error: %v)", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("Configuration watcher error (error: %v)", err)
		}
	}
}
