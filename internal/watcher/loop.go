package watcher

import (
	"path/filepath"

	"github.com/vigilapp/vigil/internal/errors"
)

// run is the event loop, the sole consumer of backend notifications. It
// exits when Close fires done or the backend closes its stream.
func (w *Watcher) run() {
	defer w.wg.Done()
	defer w.state.Store(stateStopped)

	notifs := w.backend.notifications()
	backendErrs := w.backend.errors()

	for {
		select {
		case <-w.done:
			w.state.Store(stateDraining)
			return
		case n, ok := <-notifs:
			if !ok {
				w.state.Store(stateDraining)
				return
			}
			w.handleNotification(n)
		case err, ok := <-backendErrs:
			if !ok {
				backendErrs = nil
				continue
			}
			w.reportError("", errors.Wrap(err, errors.CodeObservation, "backend failure"))
		}
	}
}

// handleNotification reconciles one raw notification against the live
// tree and the registry, then dispatches the matching listener hooks.
// Deletions are classified by registry membership, never by stat: by the
// time the report arrives the path is already gone.
func (w *Watcher) handleNotification(n notification) {
	dir, ok := w.reg.resolve(n.Handle)
	if !ok {
		// Stale handle: the directory was dropped before its last
		// notifications drained.
		return
	}

	full := dir
	if n.Name != "" {
		full = filepath.Join(dir, platformNorm(n.Name))
	}

	// Ignore rules never filter a tracked directory; it still needs its
	// removal cascade.
	if w.opts.shouldIgnore(full) && !w.reg.contains(full) {
		return
	}

	w.logger.Debug("notification", "kind", n.Kind, "path", full)

	switch n.Kind {
	case notifyCreated:
		w.handleCreated(full)
	case notifyModified:
		w.handleModified(full)
	case notifyDeleted:
		w.handleDeleted(full, n.IsDir)
	}
}

func (w *Watcher) handleCreated(path string) {
	switch classify(path) {
	case kindDirectory:
		// A new directory starts being watched immediately; everything
		// already inside it is reported by the walk.
		if err := w.walkTree(path); err != nil {
			w.reportError(path, err)
		}
	case kindFile:
		w.dispatch(opAddFile, w.listener.OnAddFile, path)
	case kindAbsent:
		// Created and removed before we looked; the deletion report
		// is on its way.
	}
}

func (w *Watcher) handleModified(path string) {
	switch classify(path) {
	case kindDirectory:
		w.dispatch(opChangeDirectory, w.listener.OnChangeDirectory, path)
	case kindFile:
		w.dispatch(opChangeFile, w.listener.OnChangeFile, path)
	case kindAbsent:
		// Gone already; the deletion report supersedes this one.
	}
}

func (w *Watcher) handleDeleted(path string, wasDir bool) {
	if w.reg.contains(path) {
		// A tracked directory vanished. Per-child reports may be lost or
		// reordered, so the registry cascade is authoritative: the
		// directory first, then every tracked descendant exactly once.
		removed, errs := w.reg.dropSubtree(path)
		w.dispatch(opRemoveDirectory, w.listener.OnRemoveDirectory, path)
		for _, sub := range removed {
			w.dispatch(opRemoveDirectory, w.listener.OnRemoveDirectory, sub)
		}
		for _, err := range errs {
			w.reportError(path, err)
		}
		return
	}
	if wasDir {
		// Duplicate view of a directory already cascaded, or one that
		// never had a watch and so was never reported as added.
		return
	}
	w.dispatch(opRemoveFile, w.listener.OnRemoveFile, path)
}
