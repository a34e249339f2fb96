package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"bibliography/internal/logging"
)

// Watcher reloads a config file when it changes and hands every valid
// reload to a callback. The parent directory is watched so that editors
// replacing the file atomically are seen too.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	onChange    func(*Config)
	debounceDur time.Duration
	pendingAt   time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	reloads     int
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		watcher:     fw,
		path:        abs,
		onChange:    onChange,
		debounceDur: 200 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	logging.Config("Watching config file %s", w.path)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryConfig).Error("Config watcher: error closing: %v", err)
	}
}

// Reloads returns how many reloads were delivered.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryConfig).Error("Config watcher error: %v", err)
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	w.pendingAt = time.Now()
	w.mu.Unlock()
}

// flush reloads once the file has been quiet for the debounce window.
func (w *Watcher) flush() {
	w.mu.Lock()
	if w.pendingAt.IsZero() || time.Since(w.pendingAt) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.pendingAt = time.Time{}
	w.mu.Unlock()

	cfg, err := Load(w.path)
	if err != nil {
		logging.ConfigWarn("Config reload failed: %v", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		logging.ConfigWarn("Reloaded config is invalid, keeping previous: %v", err)
		return
	}

	logging.Config("Config reloaded from %s", w.path)
	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
