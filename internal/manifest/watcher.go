package manifest

import (
	"context"
	"os"
	"sync"
	"time"
)

// Change describes a detected manifest change.
type Change struct {
	Path    string
	Removed bool
}

// WatcherConfig configures the manifest watcher.
type WatcherConfig struct {
	// Path is the manifest file to watch.
	Path string

	// Interval is the polling interval.
	Interval time.Duration
}

// Watcher polls a manifest file for changes.
type Watcher struct {
	config   WatcherConfig
	onChange func(Change)
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	modTime  time.Time
	size     int64
	exists   bool
}

// NewWatcher creates a manifest watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Interval <= 0 {
		config.Interval = 500 * time.Millisecond
	}
	return &Watcher{config: config}
}

// OnChange sets the callback for manifest changes.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start polls until ctx is done or Stop is called. It returns ctx.Err() on
// cancellation and nil after Stop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	w.snapshot()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			w.check()
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning reports whether the watcher is polling.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) snapshot() {
	info, err := os.Stat(w.config.Path)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.exists = err == nil
	if w.exists {
		w.modTime = info.ModTime()
		w.size = info.Size()
	}
}

// check compares the file against the last snapshot and reports at most
// one change per tick.
func (w *Watcher) check() {
	info, err := os.Stat(w.config.Path)

	w.mu.Lock()
	callback := w.onChange
	var change *Change
	switch {
	case err != nil && w.exists:
		w.exists = false
		change = &Change{Path: w.config.Path, Removed: true}
	case err == nil && (!w.exists || !info.ModTime().Equal(w.modTime) || info.Size() != w.size):
		w.exists = true
		w.modTime = info.ModTime()
		w.size = info.Size()
		change = &Change{Path: w.config.Path}
	}
	w.mu.Unlock()

	if change != nil && callback != nil {
		callback(*change)
	}
}
