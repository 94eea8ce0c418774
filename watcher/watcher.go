// Package watcher observes the reboot-required marker file and fires a
// callback once each time it appears. Used by the watch subcommand on
// hosts where updates arrive through channels other than sigpatch runs.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// debounceDelay absorbs the write bursts update-notifier produces when it
// creates the marker and its .pkgs sibling.
const debounceDelay = 500 * time.Millisecond

type Watcher struct {
	markerPath string
	fsw        *fsnotify.Watcher

	mu       sync.Mutex
	onMarker func()
	timer    *time.Timer
	fired    bool
}

// New watches the directory containing markerPath; watching the file
// itself would miss its creation.
func New(markerPath string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	return &Watcher{
		markerPath: markerPath,
		fsw:        fsw,
	}, nil
}

// OnMarker registers the callback fired when the marker appears. Fired at
// most once per appearance; removal of the marker re-arms it.
func (w *Watcher) OnMarker(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onMarker = fn
}

// Start blocks until ctx is cancelled. If the marker already exists when
// Start is called, the callback fires immediately.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.markerPath)
	if err := w.fsw.Add(dir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", dir)
	}
	defer w.fsw.Close()

	if exists(w.markerPath) {
		w.trigger()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Name != w.markerPath {
				continue
			}
			switch {
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				w.trigger()
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				w.rearm()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
		}
	}
}

// trigger debounces marker events and fires the callback once.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fired {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		if w.fired || w.onMarker == nil {
			w.mu.Unlock()
			return
		}
		w.fired = true
		fn := w.onMarker
		w.mu.Unlock()
		fn()
	})
}

func (w *Watcher) rearm() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.fired = false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
