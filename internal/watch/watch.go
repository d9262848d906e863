// Package watch reports changes to a fixed set of files. Parent directories
// are watched rather than the files themselves so that editors which save by
// renaming a temporary file over the original are still seen.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a burst of events must be quiet before the
// change callback runs.
const DefaultDebounce = 200 * time.Millisecond

// ErrNoPaths is returned by New when there is nothing to watch.
var ErrNoPaths = errors.New("no paths to watch")

// Watcher watches files for changes.
type Watcher struct {
	paths    map[string]struct{}
	debounce time.Duration
	fs       *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New starts watching paths. Empty paths are skipped and duplicates are
// watched once. Call Close when done.
func New(paths []string, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		paths:    make(map[string]struct{}),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]struct{})
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		w.paths[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	if len(w.paths) == 0 {
		return nil, ErrNoPaths
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	w.fs = fsw
	return w, nil
}

// Paths returns the absolute paths being watched.
func (w *Watcher) Paths() []string {
	out := make([]string, 0, len(w.paths))
	for p := range w.paths {
		out = append(out, p)
	}
	return out
}

// Run calls onChange with the last changed path once events settle. It
// returns nil when ctx is cancelled, or the first error from onChange or the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context, onChange func(path string) error) error {
	var (
		pending string
		fire    <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if !w.relevant(event) {
				continue
			}
			pending = filepath.Clean(event.Name)
			fire = time.After(w.debounce)
		case <-fire:
			fire = nil
			if err := onChange(pending); err != nil {
				return err
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	_, ok := w.paths[filepath.Clean(event.Name)]
	return ok
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
