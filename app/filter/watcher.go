package filter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	reloadDebounce = 500 * time.Millisecond
	reloadAttempts = 3
)

// Watcher serves the current compiled policy and swaps in a new one when the
// policy file changes. Snapshots handed out by Current are never modified.
type Watcher struct {
	path    string
	logger  *slog.Logger
	current atomic.Pointer[Filter]
}

// NewWatcher loads the policy at path. An empty path serves DefaultPolicy and
// Run only waits for cancellation. A nil logger means slog.Default().
func NewWatcher(path string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{logger: logger}
	if path == "" {
		w.current.Store(New(nil))
		return w, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve policy path %s: %w", path, err)
	}
	w.path = abs

	if err := w.Reload(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Watcher) Current() *Filter {
	return w.current.Load()
}

// Sanitize uses the current snapshot.
func (w *Watcher) Sanitize(fragment, baseURL string) string {
	return w.Current().Sanitize(fragment, baseURL)
}

func (w *Watcher) Reload() error {
	if w.path == "" {
		return nil
	}

	policy, err := LoadPolicy(w.path)
	if err != nil {
		return err
	}

	w.current.Store(New(policy))
	w.logger.Info("Sanitizer policy loaded", "path", w.path)
	return nil
}

func (w *Watcher) Run(ctx context.Context) error {
	if w.path == "" {
		<-ctx.Done()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create policy watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch policy file %s: %w", w.path, err)
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}

			// Editors replace the file by renaming over it, which drops the watch.
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				go w.rewatch(ctx, fw)
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(reloadDebounce, w.reloadWithRetry)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Policy watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) rewatch(ctx context.Context, fw *fsnotify.Watcher) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(100 * time.Millisecond):
	}
	if err := fw.Add(w.path); err != nil {
		w.logger.Warn("Failed to re-add policy watch", "path", w.path, "error", err)
	}
}

func (w *Watcher) reloadWithRetry() {
	var err error
	for i := 0; i < reloadAttempts; i++ {
		if i > 0 {
			time.Sleep(100 * time.Millisecond)
		}
		if err = w.Reload(); err == nil {
			return
		}
	}
	w.logger.Error("Policy reload failed, keeping previous policy", "path", w.path, "error", err)
}
