// Package watch re-runs an action when files below a root change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the tree must stay quiet before the action runs
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a directory tree recursively and calls an action after a burst of changes settles.
// The action never runs concurrently with itself.
type Watcher struct {
	root     string
	exclude  map[string]bool
	debounce time.Duration
	action   func()
	log      *slog.Logger
	fs       *fsnotify.Watcher
}

// New starts watching root and every directory below it, except directories named in excludeDirs.
func New(root string, excludeDirs []string, action func(), log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		exclude:  make(map[string]bool, len(excludeDirs)),
		debounce: DefaultDebounce,
		action:   action,
		log:      log,
		fs:       fs,
	}
	for _, d := range excludeDirs {
		w.exclude[d] = true
	}

	if err := w.addRecursive(root); err != nil {
		fs.Close()
		return nil, err
	}
	return w, nil
}

// SetDebounce changes the quiet period. Call before Run.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run dispatches events until ctx is cancelled or the watcher is closed
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(ev.Name); err != nil {
						w.log.Warn("failed to watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			w.log.Info("re-running analysis")
			w.action()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", "error", err)
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// relevant drops attribute-only changes and anything inside an excluded directory
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if w.exclude[part] {
			return false
		}
	}
	return true
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Vanished or unreadable directories are not fatal
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.exclude[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
