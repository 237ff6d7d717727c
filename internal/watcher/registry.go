package watcher

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/vigilapp/vigil/internal/errors"
)

// registry is the bidirectional map between watched directory paths and
// backend handles. It is the single source of truth for "is this
// directory being watched"; every mutation goes through one mutex.
type registry struct {
	backend backend

	mu      sync.Mutex
	paths   map[string]handle
	handles map[handle]string
	closed  bool
}

func newRegistry(b backend) *registry {
	return &registry{
		backend: b,
		paths:   make(map[string]handle),
		handles: make(map[handle]string),
	}
}

// register starts watching dir, or returns the existing handle when dir
// is already watched (already == true). Walkers use the flag to claim a
// directory exactly once.
func (r *registry) register(dir string) (h handle, already bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, false, errors.ErrClosed
	}
	if h, ok := r.paths[dir]; ok {
		return h, true, nil
	}

	h, err = r.backend.register(dir)
	if err != nil {
		return 0, false, errors.Wrapf(err, errors.CodeWatchFailed, "watch %s", dir)
	}
	r.paths[dir] = h
	r.handles[h] = dir
	return h, false, nil
}

// unregister drops dir and releases its handle. Unknown dir is a no-op.
// The release error is returned for reporting; the mapping is gone
// either way.
func (r *registry) unregister(dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(dir)
}

// resolve maps a handle back to its directory. ok is false for a handle
// already released, which is a legitimate race, not a fault.
func (r *registry) resolve(h handle) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dir, ok := r.handles[h]
	return dir, ok
}

// contains reports whether dir currently holds a watch.
func (r *registry) contains(dir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.paths[dir]
	return ok
}

// size reports the number of live watches.
func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

// dropSubtree removes dir and every watched directory beneath it,
// releasing all their handles. It returns the removed descendants (dir
// itself excluded) and any release errors. Used when a whole directory
// vanishes and the per-child deletion reports may be lost or reordered.
func (r *registry) dropSubtree(dir string) (removed []string, errs []error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := dir + string(filepath.Separator)
	for path := range r.paths {
		if path != dir && !strings.HasPrefix(path, prefix) {
			continue
		}
		if err := r.removeLocked(path); err != nil {
			errs = append(errs, err)
		}
		if path != dir {
			removed = append(removed, path)
		}
	}
	return removed, errs
}

// drain marks the registry closed and releases every remaining entry.
// Registration fails with ErrClosed from here on.
func (r *registry) drain() (released []string, errs []error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for path := range r.paths {
		if err := r.removeLocked(path); err != nil {
			errs = append(errs, err)
		}
		released = append(released, path)
	}
	return released, errs
}

// removeLocked drops one entry. Caller holds mu.
func (r *registry) removeLocked(dir string) error {
	h, ok := r.paths[dir]
	if !ok {
		return nil
	}
	delete(r.paths, dir)
	delete(r.handles, h)
	if err := r.backend.deregister(h); err != nil {
		return errors.Wrapf(err, errors.CodeObservation, "release watch on %s", dir)
	}
	return nil
}
