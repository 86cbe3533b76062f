// Package watcher reports changes to a single data file.
package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long the watcher waits for a burst of writes to settle
const DefaultDebounce = 200 * time.Millisecond

// ErrAlreadyStarted is returned when Start is called twice
var ErrAlreadyStarted = errors.New("watcher already started")

// Event is emitted once per settled burst of changes to the watched file
type Event struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

// FileWatcher watches one file. The parent directory is watched rather than
// the file itself so editors that save by rename-and-replace are still seen.
type FileWatcher struct {
	path     string
	debounce time.Duration
	logger   zerolog.Logger

	watcher *fsnotify.Watcher
	events  chan Event

	mu      sync.Mutex
	timer   *time.Timer
	last    fsnotify.Op
	started bool
	stopped bool
}

// New creates a watcher for path. A debounce of zero uses DefaultDebounce.
func New(path string, debounce time.Duration, logger zerolog.Logger) (*FileWatcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FileWatcher{
		path:     abs,
		debounce: debounce,
		logger:   logger.With().Str("component", "watcher").Str("file", abs).Logger(),
		watcher:  w,
		events:   make(chan Event, 1),
	}, nil
}

// Path returns the watched file path
func (w *FileWatcher) Path() string {
	return w.path
}

// Start begins watching. The returned channel is closed when ctx is done or
// Close is called. Events are dropped while a previous one is still unread.
func (w *FileWatcher) Start(ctx context.Context) (<-chan Event, error) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	w.started = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.Close()
		return nil, err
	}

	go w.loop(ctx)
	w.logger.Debug().Msg("watching for changes")
	return w.events, nil
}

func (w *FileWatcher) loop(ctx context.Context) {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			w.schedule(event.Op)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *FileWatcher) schedule(op fsnotify.Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.last = op
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.emit)
}

func (w *FileWatcher) emit() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.timer = nil

	select {
	case w.events <- Event{Path: w.path, Op: w.last, Time: time.Now()}:
		w.logger.Debug().Str("op", w.last.String()).Msg("file changed")
	default:
	}
}

// Close stops the watcher and closes the event channel. It is safe to call
// more than once.
func (w *FileWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.events)
	return w.watcher.Close()
}
