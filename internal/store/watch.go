package store

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lvanelk/antigravity-quota-watch/internal/logger"
)

const debounceDelay = 100 * time.Millisecond

// Watcher reports external changes to the quota file, debounced, so a
// second instance or the editor extension writing the same file refreshes
// this display. The parent directory is watched because writers typically
// replace the file.
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan struct{}
	stop    chan struct{}

	mu            sync.Mutex
	debounceTimer *time.Timer

	path string
}

// Watch starts watching the store's file for changes.
func (s *Store) Watch() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsWatcher.Add(filepath.Dir(s.path)); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fsWatcher,
		events:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
		path:    s.path,
	}
	go w.loop()
	return w, nil
}

// Events returns the change notification channel.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleNotify()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("quota file watcher error", "error", err)

		case <-w.stop:
			return
		}
	}
}

// scheduleNotify coalesces bursts of events into one notification.
func (w *Watcher) scheduleNotify() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(debounceDelay, func() {
		select {
		case w.events <- struct{}{}:
		default:
		}
	})
}
