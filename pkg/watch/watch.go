// Package watch re-analyzes source files as they change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fumiya-kume/cra/pkg/analysis"
	"github.com/fumiya-kume/cra/pkg/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is analyzed
const DefaultDebounce = 300 * time.Millisecond

// Event is the outcome of analyzing one changed file
type Event struct {
	Path   string
	Report *analysis.FileReport
	Err    error
}

// Handler receives events on the Run goroutine, one at a time
type Handler func(Event)

// Options configures a Watcher
type Options struct {
	Debounce time.Duration
	Files    *analysis.FileAnalyzer
	// InitialScan analyzes every file once before watching
	InitialScan bool
}

// Watcher watches a directory tree. fsnotify is not recursive, so every
// non-excluded directory is added, including ones created later.
type Watcher struct {
	root     string
	files    *analysis.FileAnalyzer
	debounce time.Duration
	initial  bool
	log      *logger.Logger

	fsw   *fsnotify.Watcher
	ready chan string
	stop  chan struct{}

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New starts watching root. Call Run to receive events and Close when Run is not used.
func New(root string, opts Options, log *logger.Logger) (*Watcher, error) {
	if log == nil {
		log = logger.NewDefault()
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Files == nil {
		opts.Files = analysis.NewFileAnalyzer(nil, analysis.DefaultFileOptions())
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		files:    opts.Files,
		debounce: opts.Debounce,
		initial:  opts.InitialScan,
		log:      log.WithPrefix("watch"),
		fsw:      fsw,
		ready:    make(chan string, 16),
		stop:     make(chan struct{}),
		timers:   make(map[string]*time.Timer),
	}
	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) excludedDir(path string) bool {
	return path != w.root && w.files.IsExcluded(path+string(filepath.Separator))
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warn("Skipping %s (error: %v)", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.excludedDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) wanted(path string) bool {
	return analysis.IsSupportedFile(path) && !w.files.IsExcluded(path)
}

// Run delivers events until ctx is canceled, then releases the watcher.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	defer w.Close()

	if w.initial {
		if err := w.scan(ctx, handle); err != nil {
			return err
		}
	}
	w.log.Info("Watching %s", w.root)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("File watcher error (error: %v)", err)

		case path := <-w.ready:
			handle(w.analyze(path))
		}
	}
}

func (w *Watcher) scan(ctx context.Context, handle Handler) error {
	report, err := w.files.AnalyzeDirectory(ctx, w.root)
	if err != nil {
		return err
	}
	for i := range report.Files {
		handle(Event{Path: report.Files[i].Path, Report: &report.Files[i]})
	}
	return nil
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.cancel(path)
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.excludedDir(path) {
				if err := w.addTree(path); err != nil {
					w.log.Warn("Failed to watch new directory (error: %v)", err)
				}
			}
			return
		}
		fallthrough
	case event.Has(fsnotify.Write):
		if w.wanted(path) {
			w.schedule(path)
		}
	}
}

// schedule restarts the debounce timer for path
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-w.stop:
		}
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) analyze(path string) Event {
	report, err := w.files.ReadAndAnalyze(path)
	if err != nil {
		w.log.Debug("Analysis failed (path: %s, error: %v)", path, err)
		return Event{Path: path, Err: err}
	}
	return Event{Path: path, Report: report}
}

// Close stops pending timers and the underlying watcher. It is safe to call twice.
func (w *Watcher) Close() error {
	w.mu.Lock()
	select {
	case <-w.stop:
		w.mu.Unlock()
		return nil
	default:
	}
	close(w.stop)
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	return w.fsw.Close()
}
