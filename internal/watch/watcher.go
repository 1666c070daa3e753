// Package watch re-runs a handler for Go files that change on disk.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"footnote/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses rapid saves of one file into one handler call.
const DefaultDebounce = 300 * time.Millisecond

// Handler is called once per settled change of a .go file.
type Handler func(ctx context.Context, path string) error

// Watcher watches directories for changes to .go files.
type Watcher struct {
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	dirs     []string
	handler  Handler
	pending  map[string]time.Time
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool

	stats Stats
}

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Handled       int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
}

// New creates a watcher over dirs. A debounce of zero uses DefaultDebounce.
func New(handler Handler, debounce time.Duration, dirs ...string) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: nil handler")
	}
	if len(dirs) == 0 {
		return nil, errors.New("watch: no directories")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:  fw,
		dirs:     dirs,
		handler:  handler,
		pending:  make(map[string]time.Time),
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.mu.Unlock()
			return err
		}
		logging.Watch("watching directory: %s", dir)
	}
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
	return nil
}

// Stop stops the event loop and releases the underlying watcher. A watcher
// that was never started is closed as well.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		logging.WatchError("error closing watcher: %v", err)
	}
	logging.Watch("stopped")
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 3
	if tick > 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
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
			w.record(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.WatchError("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// relevant reports whether path names a Go source file worth handling.
// Hidden files and editor temporaries are skipped.
func relevant(path string) bool {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".go") || strings.HasPrefix(base, ".") || strings.HasPrefix(base, "#") {
		return false
	}
	return true
}

func (w *Watcher) record(event fsnotify.Event) {
	if !relevant(event.Name) || !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	logging.WatchDebug("%s %s", event.Op, event.Name)

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// flush handles every path that has been quiet for the debounce window.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	sort.Strings(settled)
	for _, path := range settled {
		if _, err := os.Stat(path); err != nil {
			logging.WatchDebug("skipping vanished file: %s", path)
			continue
		}
		err := w.handler(ctx, path)
		w.mu.Lock()
		if err != nil {
			w.stats.Errors++
		} else {
			w.stats.Handled++
		}
		w.mu.Unlock()
		if err != nil {
			logging.WatchError("handler failed for %s: %v", path, err)
		}
	}
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchList returns the watched directories.
func (w *Watcher) WatchList() []string {
	return w.watcher.WatchList()
}
