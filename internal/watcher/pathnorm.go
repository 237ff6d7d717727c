package watcher

import "path/filepath"

// normalizePath converts a path to the canonical form used as registry
// identity: absolute, cleaned, and platform-normalized so that caller
// input and backend output agree byte for byte.
func normalizePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return platformNorm(abs), nil
}
