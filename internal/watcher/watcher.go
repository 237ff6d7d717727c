package watcher

import (
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/vigilapp/vigil/internal/errors"
)

// Listener operation names, used in error context and debug logs.
const (
	opAddFile         = "add file"
	opAddDirectory    = "add directory"
	opChangeFile      = "change file"
	opChangeDirectory = "change directory"
	opRemoveFile      = "remove file"
	opRemoveDirectory = "remove directory"
)

// Event loop states.
const (
	stateRunning int32 = iota
	stateDraining
	stateStopped
)

func stateName(s int32) string {
	switch s {
	case stateRunning:
		return "running"
	case stateDraining:
		return "draining"
	default:
		return "stopped"
	}
}

// Watcher observes directory trees recursively and reports every change
// to its Listener exactly once. One goroutine consumes OS notifications;
// Add and Close may be called from any goroutine.
type Watcher struct {
	listener Listener
	logger   *slog.Logger
	opts     Options

	backend backend
	reg     *registry

	mu     sync.Mutex // guards closed
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup

	state      atomic.Int32
	eventCount atomic.Int64
	errorCount atomic.Int64
}

// Stats is a point-in-time snapshot of watcher activity.
type Stats struct {
	// ActiveWatches is the number of directories currently observed.
	ActiveWatches int
	// Events counts listener hook dispatches since start.
	Events int64
	// Errors counts failures routed to the error hook since start.
	Errors int64
	// State is the event loop state: running, draining, or stopped.
	State string
}

// New creates a Watcher and starts its event goroutine. The platform
// backend is selected at build time: inotify on Linux, fsnotify elsewhere.
func New(listener Listener, logger *slog.Logger, opts Options) (*Watcher, error) {
	if listener == nil {
		return nil, errors.Validation("listener must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	b, err := newBackend(logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeWatchFailed, "create watch backend")
	}
	return newWithBackend(listener, logger, opts, b), nil
}

// newWithBackend wires a Watcher around any backend and starts the event
// goroutine. Tests use it to drive the watcher deterministically.
func newWithBackend(listener Listener, logger *slog.Logger, opts Options, b backend) *Watcher {
	opts.setDefaults()
	w := &Watcher{
		listener: listener,
		logger:   logger,
		opts:     opts,
		backend:  b,
		reg:      newRegistry(b),
		done:     make(chan struct{}),
	}
	w.state.Store(stateRunning)
	w.wg.Add(1)
	go w.run()

	logger.Debug("watcher started", "backend", b.name())
	return w
}

// Add starts watching root, which may name a directory or a single file.
//
// For a directory the whole tree is scanned synchronously: every
// pre-existing file and subdirectory has produced exactly one add
// callback by the time Add returns, and changes from then on arrive
// through the event goroutine. For a file the containing directory is
// registered, so sibling events are observed as a consequence.
//
// The root registration error is returned; failures deeper in the scan
// go to the error hook while the scan continues.
func (w *Watcher) Add(root string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errors.ErrClosed
	}
	w.mu.Unlock()

	path, err := normalizePath(root)
	if err != nil {
		return errors.Wrapf(err, errors.CodeValidation, "resolve %s", root)
	}

	switch classify(path) {
	case kindDirectory:
		w.logger.Info("watching directory tree", "root", path)
		return w.walkTree(path)
	case kindFile:
		if _, _, err := w.reg.register(filepath.Dir(path)); err != nil {
			return err
		}
		w.logger.Info("watching file", "path", path)
		w.dispatch(opAddFile, w.listener.OnAddFile, path)
		return nil
	default:
		return errors.NotFoundf("%s does not exist", path)
	}
}

// Close stops the watcher: it wakes the event goroutine, releases every
// watch, and shuts the backend down. Idempotent and safe to call from
// any goroutine, including concurrently with Add. Release failures are
// routed to the error hook, never returned.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)

	released, errs := w.reg.drain()
	for _, err := range errs {
		w.reportError("", err)
	}
	if err := w.backend.close(); err != nil {
		w.reportError("", errors.Wrap(err, errors.CodeObservation, "close backend"))
	}
	w.wg.Wait()

	w.logger.Info("watcher closed", "released", len(released))
	return nil
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	return Stats{
		ActiveWatches: w.reg.size(),
		Events:        w.eventCount.Load(),
		Errors:        w.errorCount.Load(),
		State:         stateName(w.state.Load()),
	}
}

// dispatch runs one listener hook. Hook errors and panics are reported
// through the error hook; they never propagate to the caller.
func (w *Watcher) dispatch(op string, hook func(string) error, path string) {
	w.eventCount.Add(1)
	defer func() {
		if rec := recover(); rec != nil {
			w.reportError(path, errors.Internalf("listener panic during %s %s: %v", op, path, rec))
		}
	}()
	if err := hook(path); err != nil {
		w.reportError(path, errors.Wrapf(err, errors.CodeObservation, "listener failed during %s", op))
	}
}

// reportError delivers err to the error hook, guarding against hook
// panics so processing always continues.
func (w *Watcher) reportError(path string, err error) {
	w.errorCount.Add(1)
	defer func() {
		if rec := recover(); rec != nil {
			w.logger.Error("error hook panicked", "path", path, "panic", rec)
		}
	}()
	w.listener.OnError(path, err)
}
