package session

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/docbridge/docbridge/internal/event"
	"github.com/docbridge/docbridge/internal/logging"
)

// Watcher detects on-disk modifications of an open document and publishes
// document.changed events so the IDE glue can prompt a reload. The document's
// directory is watched rather than the file itself: saves land via rename,
// which drops a file-level watch on some platforms.
type Watcher struct {
	watcher   *fsnotify.Watcher
	sessionID string
	path      string
	bus       *event.Bus
	lastKey   string
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
	mu        sync.Mutex
}

// NewWatcher creates a watcher for the document at path.
func NewWatcher(sessionID, path string, bus *event.Bus) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	// The starting key anchors change detection; without it the first
	// directory event would be misreported as a document change.
	key, err := DocumentKey(path)
	if err != nil {
		w.Close()
		return nil, err
	}

	return &Watcher{
		watcher:   w,
		sessionID: sessionID,
		path:      path,
		bus:       bus,
		lastKey:   key,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// Start begins watching for document changes.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Chmod is included because timestamp-only updates surface as
			// chmod on Linux; the key comparison below filters the noise.
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) == 0 {
				continue
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			w.checkDocumentChange()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error().Err(err).Str("path", w.path).Msg("document watcher error")
		}
	}
}

// checkDocumentChange recomputes the identity key and publishes only on a
// real content change, so a burst of events for one save collapses into one
// notification.
func (w *Watcher) checkDocumentChange() {
	newKey, err := DocumentKey(w.path)
	if err != nil {
		return
	}

	w.mu.Lock()
	changed := newKey != w.lastKey
	if changed {
		w.lastKey = newKey
	}
	w.mu.Unlock()

	if !changed {
		return
	}

	logging.Debug().Str("path", w.path).Str("key", newKey).Msg("document changed on disk")

	if w.bus != nil {
		w.bus.PublishSync(event.Event{
			Type: event.DocumentChanged,
			Data: event.DocumentChangedData{SessionID: w.sessionID, Path: w.path},
		})
	}
}

// Stop stops watching. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		w.watcher.Close()
		return
	}
	w.started = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}
