package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long the watcher waits for more changes before
// reporting.
const defaultDebounce = 500 * time.Millisecond

// RegistryWatcher watches the registry definition files for on-disk drift.
// Registries are immutable for the process lifetime, so a change only means
// the running process is now behind its configuration: the watcher logs a
// restart-required warning and invokes the OnChange callback.
type RegistryWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	files    map[string]bool
	debounce time.Duration

	// OnChange, if set, is invoked once per debounce window with the
	// paths that changed.
	OnChange func(paths []string)

	pendingMu sync.Mutex
	pending   map[string]bool
}

// NewRegistryWatcher creates a watcher over the given registry files.
func NewRegistryWatcher(logger *slog.Logger, paths ...string) (*RegistryWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	files := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		files[abs] = true
	}

	return &RegistryWatcher{
		watcher:  fsw,
		logger:   logger,
		files:    files,
		debounce: defaultDebounce,
		pending:  make(map[string]bool),
	}, nil
}

// Start begins watching the parent directories of the registry files.
// Directories are watched rather than the files themselves so that
// rename-replace editors and atomic writes are still observed.
func (w *RegistryWatcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("Failed to watch registry directory",
				"dir", dir,
				"error", err)
		} else {
			w.logger.Debug("Watching registry directory", "dir", dir)
		}
	}

	go w.processEvents(ctx)

	w.logger.Info("Registry drift watcher started", "files", len(w.files))
	return nil
}

// Stop stops the watcher.
func (w *RegistryWatcher) Stop() error {
	return w.watcher.Close()
}

// processEvents handles fsnotify events with debouncing.
func (w *RegistryWatcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Registry watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleFSEvent records a change to one of the watched registry files.
func (w *RegistryWatcher) handleFSEvent(event fsnotify.Event) {
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		abs = event.Name
	}
	if !w.files[abs] {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.pendingMu.Lock()
	w.pending[abs] = true
	w.pendingMu.Unlock()
}

// flushPending reports accumulated changes.
func (w *RegistryWatcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	for _, p := range paths {
		w.logger.Warn("Registry definition changed on disk; restart required to reload",
			"path", p)
	}
	if w.OnChange != nil {
		w.OnChange(paths)
	}
}
