// Package filesystem watches the policy directory with fsnotify and turns
// bursts of file events into single re-scan requests.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/athena/internal/logger"
)

// DefaultDebounce is how long the directory must stay quiet before a
// re-scan is requested.
const DefaultDebounce = 750 * time.Millisecond

// Watcher reports changes to the files directly inside one directory.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func()

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher for dir. onChange runs on its own goroutine after
// each quiet period that followed at least one relevant event.
func New(dir string, debounce time.Duration, onChange func()) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dir: dir, debounce: debounce, onChange: onChange}
}

// Run watches until ctx is cancelled. The directory must exist.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for policy changes", w.dir)

	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handleFsEvent(event) {
				logger.Debug("Policy change: %s %s", event.Op, filepath.Base(event.Name))
				w.schedule()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error on %s: %v", w.dir, err)
		}
	}
}

// handleFsEvent reports whether event can change what ingestion sees.
func (w *Watcher) handleFsEvent(event fsnotify.Event) bool {
	if isHidden(event.Name) {
		return false
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// The file is gone, so there is nothing to stat.
		return true
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return false
		}
		return !info.IsDir()
	default:
		return false
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// isHidden reports whether the file name starts with a dot.
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
