// Package inbox watches a directory for batch job files.
package inbox

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ResultSuffix marks files written by the watcher itself; they are never
// reported as jobs.
const ResultSuffix = ".result.yaml"

// ErrStopped is returned by Start on a watcher that has already been stopped.
var ErrStopped = errors.New("watcher stopped")

// Event reports a job file that was created or rewritten.
type Event struct {
	Name string // file name without directory
	Path string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger used for watch errors.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce sets how long a file must be quiet before it is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// Watcher monitors a directory for *.yaml and *.yml job files.
// A Watcher is single-use: once stopped it cannot be started again.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	events  chan Event
	logger  *slog.Logger

	// Debouncing
	debounceDelay  time.Duration
	debounceTimers map[string]*time.Timer
	timersMu       sync.Mutex

	// Lifecycle
	stopCh    chan struct{}
	stoppedCh chan struct{}
	running   bool
	stopped   bool
	runningMu sync.Mutex
}

// New creates a watcher for dir.
func New(dir string, opts ...Option) *Watcher {
	w := &Watcher{
		dir:            dir,
		events:         make(chan Event, 100),
		logger:         slog.Default(),
		debounceDelay:  100 * time.Millisecond,
		debounceTimers: make(map[string]*time.Timer),
		stopCh:         make(chan struct{}),
		stoppedCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It creates the directory if needed and is a no-op
// when already running. Starting a stopped watcher returns ErrStopped.
func (w *Watcher) Start() error {
	w.runningMu.Lock()
	defer w.runningMu.Unlock()

	if w.stopped {
		return ErrStopped
	}
	if w.running {
		return nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher

	w.running = true
	go w.watchLoop()

	return nil
}

// Stop terminates the watcher and closes the events channel.
func (w *Watcher) Stop() {
	w.runningMu.Lock()
	if !w.running {
		w.runningMu.Unlock()
		return
	}
	w.running = false
	w.stopped = true
	w.runningMu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh

	if w.watcher != nil {
		w.watcher.Close()
	}

	w.timersMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	close(w.events)
	w.timersMu.Unlock()
}

// Events returns the channel of job file events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Pending lists job files already present in the directory, sorted by name.
func (w *Watcher) Pending() ([]Event, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}

	var events []Event
	for _, entry := range entries {
		if entry.IsDir() || !IsJobFile(entry.Name()) {
			continue
		}
		events = append(events, Event{Name: entry.Name(), Path: filepath.Join(w.dir, entry.Name())})
	}
	return events, nil
}

// IsJobFile reports whether name looks like a job file.
func IsJobFile(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ResultSuffix) {
		return false
	}
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

// ResultPath returns where the report for the job at path is written.
func ResultPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ResultSuffix
}

func (w *Watcher) watchLoop() {
	defer close(w.stoppedCh)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("inbox watch error", "dir", w.dir, "error", err)
		}
	}
}

func (w *Watcher) handleFsEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if !IsJobFile(name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	w.debounce(name, event.Name)
}

// debounce coalesces bursts of writes to the same file.
func (w *Watcher) debounce(name, path string) {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()

	if timer, exists := w.debounceTimers[name]; exists {
		timer.Stop()
	}

	w.debounceTimers[name] = time.AfterFunc(w.debounceDelay, func() {
		w.emit(name, path)
	})
}

func (w *Watcher) emit(name, path string) {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()

	delete(w.debounceTimers, name)

	// Stop has already closed the channel.
	if !w.isRunning() {
		return
	}

	if _, err := os.Stat(path); err != nil {
		return // removed before the debounce fired
	}

	select {
	case w.events <- Event{Name: name, Path: path}:
	default:
		w.logger.Warn("inbox event dropped", "file", name)
	}
}

func (w *Watcher) isRunning() bool {
	w.runningMu.Lock()
	defer w.runningMu.Unlock()
	return w.running
}
