package watcher

import (
	"io/fs"
	"path/filepath"

	"github.com/vigilapp/vigil/internal/errors"
)

// walkTree registers root and descends it depth-first, reporting every
// directory and file found. The add callback for a directory always
// precedes anything inside it.
//
// Failures below the root are reported through the error hook and the
// walk continues with the siblings; only the root registration error and
// shutdown abort it. A directory that cannot be watched is not descended
// into, and a directory another walker already claimed is left to that
// walker.
func (w *Watcher) walkTree(root string) error {
	if _, already, err := w.reg.register(root); err != nil {
		return err
	} else if already {
		return nil
	}
	w.dispatch(opAddDirectory, w.listener.OnAddDirectory, root)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		path = platformNorm(path)
		if walkErr != nil {
			w.reportError(path, errors.Wrapf(walkErr, errors.CodeObservation, "walk %s", path))
			return nil
		}
		if path == root {
			return nil
		}
		if w.opts.shouldIgnore(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			w.dispatch(opAddFile, w.listener.OnAddFile, path)
			return nil
		}

		_, already, err := w.reg.register(path)
		switch {
		case errors.Is(err, errors.ErrClosed):
			// Shutting down mid-walk; no point continuing.
			return err
		case err != nil:
			w.reportError(path, err)
			return filepath.SkipDir
		case already:
			// A concurrent walk claimed this directory and owns its events.
			return filepath.SkipDir
		}
		w.dispatch(opAddDirectory, w.listener.OnAddDirectory, path)
		return nil
	})
}
