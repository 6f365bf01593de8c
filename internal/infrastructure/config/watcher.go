package config

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig holds configuration for the preset file watcher.
type WatcherConfig struct {
	DebounceDuration time.Duration
	BufferSize       int
}

// DefaultWatcherConfig returns sensible default configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		DebounceDuration: 100 * time.Millisecond,
		BufferSize:       16,
	}
}

// PresetWatcher monitors the preset directory and reloads the preset
// store when yaml files change. Bursts of filesystem events (editors
// write temp files and rename) collapse into a single reload.
type PresetWatcher struct {
	fsWatcher *fsnotify.Watcher
	store     *PresetStore
	config    WatcherConfig

	reloads chan time.Time
	errors  chan error

	// Debouncing state
	pendingAt time.Time
	pendingMu sync.Mutex

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.Mutex
}

// NewPresetWatcher creates a watcher bound to the store's directory.
func NewPresetWatcher(store *PresetStore, cfg WatcherConfig) (*PresetWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 16
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = 100 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &PresetWatcher{
		fsWatcher: fsWatcher,
		store:     store,
		config:    cfg,
		reloads:   make(chan time.Time, cfg.BufferSize),
		errors:    make(chan error, cfg.BufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start begins watching the preset directory. A non-existent directory
// is skipped without error; the store then serves builtins only.
func (w *PresetWatcher) Start() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	if _, err := os.Stat(w.store.Dir()); err == nil {
		if err := w.fsWatcher.Add(w.store.Dir()); err != nil {
			return err
		}
	}

	w.wg.Add(1)
	go w.processEvents()

	w.wg.Add(1)
	go w.debounceProcessor()

	return nil
}

// Reloads returns a channel that receives a timestamp after each
// completed reload.
func (w *PresetWatcher) Reloads() <-chan time.Time {
	return w.reloads
}

// Errors returns the channel for receiving watcher errors.
func (w *PresetWatcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and releases resources.
func (w *PresetWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()

	close(w.reloads)
	close(w.errors)

	return err
}

// processEvents reads from fsnotify and marks a reload pending.
func (w *PresetWatcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if !isYAMLFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			w.pendingMu.Lock()
			w.pendingAt = time.Now()
			w.pendingMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				// Drop error if channel is full
			}
		}
	}
}

// debounceProcessor reloads the store once the pending change has been
// stable for the debounce duration.
func (w *PresetWatcher) debounceProcessor() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.DebounceDuration / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.reloadIfStable()
		}
	}
}

// reloadIfStable performs the reload when the last event is old enough.
func (w *PresetWatcher) reloadIfStable() {
	w.pendingMu.Lock()
	pending := w.pendingAt
	if pending.IsZero() || time.Since(pending) < w.config.DebounceDuration {
		w.pendingMu.Unlock()
		return
	}
	w.pendingAt = time.Time{}
	w.pendingMu.Unlock()

	if err := w.store.Reload(); err != nil {
		select {
		case w.errors <- err:
		default:
		}
		return
	}

	select {
	case w.reloads <- time.Now():
	default:
		// Drop notification if nobody is listening
	}
}
