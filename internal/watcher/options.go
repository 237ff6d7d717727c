package watcher

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Options configures the file watcher behavior.
type Options struct {
	// IgnorePatterns holds doublestar globs. A pattern containing a path
	// separator is matched against the full slash-separated path,
	// otherwise against the base name.
	IgnorePatterns []string

	// IgnoreHidden skips dot-entries and everything beneath a dot-directory.
	IgnoreHidden bool
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	// Set default ignore patterns if none specified (nil, not just empty).
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{
			".DS_Store",
			"*.tmp",
			"*.temp",
			"Thumbs.db",
		}
		// Also default to ignoring hidden files when no custom config provided.
		// If patterns were explicitly set (even to empty slice), respect the
		// caller's IgnoreHidden choice.
		o.IgnoreHidden = true
	}
}

// shouldIgnore checks if a path matches the ignore rules.
func (o *Options) shouldIgnore(path string) bool {
	// Check if hidden and we're ignoring hidden files.
	if o.IgnoreHidden {
		parts := strings.Split(filepath.Clean(path), string(filepath.Separator))
		for _, part := range parts {
			if strings.HasPrefix(part, ".") && part != "." && part != ".." {
				return true
			}
		}
	}

	base := filepath.Base(path)
	for _, pattern := range o.IgnorePatterns {
		target := base
		if strings.ContainsRune(pattern, '/') || strings.ContainsRune(pattern, filepath.Separator) {
			pattern = filepath.ToSlash(pattern)
			target = filepath.ToSlash(path)
		}
		if matched, err := doublestar.Match(pattern, target); err == nil && matched {
			return true
		}
	}

	return false
}
