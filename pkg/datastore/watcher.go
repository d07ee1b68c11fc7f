package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay debounces bursts of file system events into one reload.
const reloadDelay = 500 * time.Millisecond

// Watcher hot reloads datasets from a directory. The initial import is
// synchronous; subsequent changes are debounced and re-imported in the
// background until the context is cancelled or Close is called.
type Watcher struct {
	store   *Store
	dir     string
	watcher *fsnotify.Watcher
}

// Watch imports every dataset file in dir and starts watching it for
// changes.
func (s *Store) Watch(ctx context.Context, dir string) (*Watcher, error) {
	if err := s.ImportDir(dir); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating dataset watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching dataset directory: %w", err)
	}

	w := &Watcher{store: s, dir: dir, watcher: fsw}
	go w.processEvents(ctx)

	s.logger.Infof("watching dataset directory %s", dir)
	return w, nil
}

// Close stops watching. Safe to call alongside context cancellation.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// processEvents debounces change events and re-imports the directory.
func (w *Watcher) processEvents(ctx context.Context) {
	var reloadTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !isDatasetFile(event.Name) {
				continue
			}
			w.store.logger.Debugf("dataset file changed: %s", event.Name)

			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(reloadDelay, func() {
				if err := w.store.ImportDir(w.dir); err != nil {
					w.store.logger.WithError(err).Error("dataset reload failed")
				} else {
					w.store.logger.Info("datasets reloaded")
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.store.logger.WithError(err).Error("dataset watcher error")
		}
	}
}
