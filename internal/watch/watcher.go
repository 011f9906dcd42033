// Package watch re-runs a callback when watched files change, with per-file
// debouncing so a burst of editor saves yields one callback.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"rustmd/internal/logging"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrStopped is returned when starting a watcher that was already stopped.
var ErrStopped = errors.New("watcher stopped")

// Watcher watches a set of files and calls fn with the path of each file
// that settled after a change. Callbacks run sequentially on the watcher's
// goroutine.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	files       map[string]struct{} // cleaned absolute paths
	dirs        []string
	fn          func(path string)
	debounceMap map[string]time.Time
	debounceDur time.Duration
	tick        time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stopped     bool

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Callbacks     int
	Skipped       int // settled paths that no longer exist
	Errors        int
	LastEventPath string
	LastEventType string
	LastEventTime time.Time
}

// New creates a watcher for paths. Nothing is watched until Start.
func New(paths []string, debounce time.Duration, fn func(path string)) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no paths to watch")
	}
	if fn == nil {
		return nil, errors.New("nil callback")
	}
	if debounce <= 0 {
		return nil, fmt.Errorf("debounce must be positive, got %v", debounce)
	}

	files := make(map[string]struct{}, len(paths))
	seenDirs := make(map[string]struct{})
	var dirs []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		files[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := seenDirs[dir]; !ok {
			seenDirs[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:     fw,
		files:       files,
		dirs:        dirs,
		fn:          fn,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		tick:        tickFor(debounce),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// tickFor picks how often pending events are checked against the debounce window.
func tickFor(debounce time.Duration) time.Duration {
	t := debounce / 5
	if t < 10*time.Millisecond {
		t = 10 * time.Millisecond
	}
	if t > 100*time.Millisecond {
		t = 100 * time.Millisecond
	}
	return t
}

// Start begins watching. It is non-blocking; the event loop runs until
// ctx is cancelled or Stop is called. Stop must be called in either case
// to release the underlying watcher.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrStopped
	}
	if w.running {
		return nil
	}

	// Directories are watched so files replaced by rename are still seen.
	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		logging.Watch("watching directory: %s", dir)
	}

	w.running = true
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
// It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	if wasRunning {
		<-w.doneCh
	}

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("error closing watcher", zap.Error(err))
	}
	logging.WatchDebug("watcher stopped")
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.WatchDebug("context cancelled")
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
			logging.Get(logging.CategoryWatch).Warn("watch error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processDebounced()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if _, ok := w.files[path]; !ok {
		return
	}

	var eventType string
	switch {
	case event.Has(fsnotify.Create):
		eventType = "create"
	case event.Has(fsnotify.Write):
		eventType = "modify"
	case event.Has(fsnotify.Rename):
		eventType = "rename"
	case event.Has(fsnotify.Remove):
		eventType = "delete"
	default:
		return // chmod
	}

	logging.WatchDebug("%s event for %s", eventType, path)

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventPath = path
	w.stats.LastEventType = eventType
	w.stats.LastEventTime = time.Now()
	w.debounceMap[path] = time.Now()
	w.mu.Unlock()
}

// processDebounced fires the callback for paths quiet for the debounce window.
func (w *Watcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		if _, err := os.Stat(path); err != nil {
			logging.WatchDebug("skipping %s: %v", path, err)
			w.mu.Lock()
			w.stats.Skipped++
			w.mu.Unlock()
			continue
		}
		w.fn(path)
		w.mu.Lock()
		w.stats.Callbacks++
		w.mu.Unlock()
	}
}
