//go:build !linux

package watcher

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/vigilapp/vigil/internal/errors"
)

// removedDirMemory bounds the ring of recently released directories the
// fallback keeps for deletion dedup.
const removedDirMemory = 64

// fsnotifyBackend adapts fsnotify to the handle contract on platforms
// without raw inotify access. fsnotify reports full paths and knows
// nothing about handles, so they are synthesized here and resolved from
// the backend's own path bookkeeping.
type fsnotifyBackend struct {
	fw     *fsnotify.Watcher
	logger *slog.Logger

	notifC chan notification
	errC   chan error
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	nextID handle
	dirs   map[string]handle
	byID   map[handle]string

	// Directories released moments ago still count as directories when
	// their trailing deletion reports arrive. Ring, oldest first.
	removedDirs []string
	removedSet  map[string]struct{}

	wg sync.WaitGroup
}

func newBackend(logger *slog.Logger) (backend, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	b := &fsnotifyBackend{
		fw:         fw,
		logger:     logger,
		notifC:     make(chan notification, 256),
		errC:       make(chan error, 8),
		done:       make(chan struct{}),
		dirs:       make(map[string]handle),
		byID:       make(map[handle]string),
		removedSet: make(map[string]struct{}),
	}
	b.wg.Add(1)
	go b.forward()
	return b, nil
}

func (b *fsnotifyBackend) name() string { return "fsnotify" }

func (b *fsnotifyBackend) register(dir string) (handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, errors.ErrClosed
	}
	if h, ok := b.dirs[dir]; ok {
		return h, nil
	}

	if err := b.fw.Add(dir); err != nil {
		return 0, err
	}
	b.nextID++
	h := b.nextID
	b.dirs[dir] = h
	b.byID[h] = dir
	b.logger.Debug("watch added", "path", dir, "handle", h)
	return h, nil
}

func (b *fsnotifyBackend) deregister(h handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	dir, ok := b.byID[h]
	if !ok {
		return nil
	}
	delete(b.byID, h)
	delete(b.dirs, dir)
	b.rememberRemoved(dir)

	// The watch is usually gone already because the directory is.
	if err := b.fw.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		return err
	}
	return nil
}

func (b *fsnotifyBackend) notifications() <-chan notification { return b.notifC }

func (b *fsnotifyBackend) errors() <-chan error { return b.errC }

func (b *fsnotifyBackend) close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.done)
	err := b.fw.Close()
	b.wg.Wait()
	close(b.notifC)
	close(b.errC)

	if err != nil {
		return fmt.Errorf("close fsnotify: %w", err)
	}
	return nil
}

// forward consumes fsnotify's streams and republishes them in handle form.
func (b *fsnotifyBackend) forward() {
	defer b.wg.Done()

	for {
		select {
		case <-b.done:
			return
		case ev, ok := <-b.fw.Events:
			if !ok {
				return
			}
			if n, ok := b.translate(ev); ok {
				b.emit(n)
			}
		case err, ok := <-b.fw.Errors:
			if !ok {
				return
			}
			b.emitError(err)
		}
	}
}

// translate maps an fsnotify event onto the handle contract: find which
// registered directory saw it, name the entry relative to that
// directory, and classify the operation.
func (b *fsnotifyBackend) translate(ev fsnotify.Event) (notification, bool) {
	full := platformNorm(filepath.Clean(ev.Name))

	b.mu.Lock()
	defer b.mu.Unlock()

	var n notification
	if h, ok := b.dirs[full]; ok && ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		// The watched directory itself went away.
		n = notification{Handle: h, IsDir: true}
	} else if h, ok := b.dirs[filepath.Dir(full)]; ok {
		_, isDir := b.dirs[full]
		n = notification{
			Handle: h,
			Name:   filepath.Base(full),
			IsDir:  isDir || b.wasRemovedDir(full),
		}
	} else {
		// Neither the path nor its parent is registered; a change in a
		// directory already released.
		return notification{}, false
	}

	switch {
	case ev.Op&fsnotify.Create != 0:
		n.Kind = notifyCreated
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		n.Kind = notifyDeleted
	case ev.Op&(fsnotify.Write|fsnotify.Chmod) != 0:
		n.Kind = notifyModified
	default:
		return notification{}, false
	}
	return n, true
}

// rememberRemoved records a released directory for deletion dedup.
// Caller holds mu.
func (b *fsnotifyBackend) rememberRemoved(dir string) {
	if _, ok := b.removedSet[dir]; ok {
		return
	}
	b.removedDirs = append(b.removedDirs, dir)
	b.removedSet[dir] = struct{}{}
	if len(b.removedDirs) > removedDirMemory {
		oldest := b.removedDirs[0]
		b.removedDirs = b.removedDirs[1:]
		delete(b.removedSet, oldest)
	}
}

// wasRemovedDir reports whether path held a watch recently. Caller holds mu.
func (b *fsnotifyBackend) wasRemovedDir(path string) bool {
	_, ok := b.removedSet[path]
	return ok
}

func (b *fsnotifyBackend) emit(n notification) {
	select {
	case b.notifC <- n:
	case <-b.done:
	}
}

func (b *fsnotifyBackend) emitError(err error) {
	select {
	case b.errC <- err:
	case <-b.done:
	}
}
