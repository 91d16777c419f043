package auth

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// StoreWatcher follows changes another process makes to the session file and
// folds them into the running manager, so two concurrent clients sharing the
// store converge instead of one keeping a revoked session until its next 401.
type StoreWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchStore starts watching the store's backing file. Callers must Close
// the returned watcher.
func WatchStore(store *Store, manager *Manager, logger *slog.Logger) (*StoreWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: editors and os.WriteFile replace
	// the file, which would drop a direct file watch.
	dir := filepath.Dir(store.Path())
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	sw := &StoreWatcher{watcher: watcher, done: make(chan struct{})}

	go func() {
		target := filepath.Clean(store.Path())
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				logger.Debug("session store changed externally", "op", event.Op.String())
				manager.AdoptStored()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("session store watcher error", "error", err)
			case <-sw.done:
				return
			}
		}
	}()

	return sw, nil
}

// Close stops the watcher.
func (w *StoreWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
