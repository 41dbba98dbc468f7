package session

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/uptask/logging"
	"github.com/sirupsen/logrus"
)

// Watcher reloads a Session when another process logs in or out.
type Watcher struct {
	session    *Session
	watcher    *fsnotify.Watcher
	debounce   time.Duration
	onChange   func(loggedIn bool)
	logger     *logrus.Entry
	mu         sync.Mutex
	lastChange time.Time
}

// NewWatcher watches the directory holding s's file. onChange runs after
// every reload with the new login state.
func NewWatcher(s *Session, debounce time.Duration, onChange func(loggedIn bool)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// fsnotify can't watch a file that doesn't exist yet, so watch its directory.
	if err := w.Add(filepath.Dir(s.Path())); err != nil {
		w.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = 50 * time.Millisecond
	}
	return &Watcher{
		session:  s,
		watcher:  w,
		debounce: debounce,
		onChange: onChange,
		logger:   logging.NewLogger("session"),
	}, nil
}

// Start processes file events. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	target := filepath.Clean(w.session.Path())
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.handleChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

func (w *Watcher) handleChange() {
	w.mu.Lock()
	elapsed := time.Since(w.lastChange)
	w.lastChange = time.Now()
	w.mu.Unlock()

	// Writes land as create+rename bursts; let them settle before reading.
	if elapsed < w.debounce {
		time.Sleep(w.debounce)
	}

	before := w.session.LoggedIn()
	if err := w.session.Reload(); err != nil {
		w.logger.WithError(err).Warn("failed to reload session")
		return
	}
	after := w.session.LoggedIn()
	if before != after {
		w.logger.WithField("logged_in", after).Info("Session changed")
	}
	if w.onChange != nil {
		w.onChange(after)
	}
}
