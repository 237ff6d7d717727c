package watcher

import "os"

// pathKind is the result of inspecting a path on disk.
type pathKind int

const (
	// kindAbsent means the path does not exist or cannot be inspected;
	// mid-race the two are indistinguishable.
	kindAbsent pathKind = iota
	// kindFile covers regular files and anything else that is not a
	// directory. Symlinks are not followed.
	kindFile
	// kindDirectory is a directory.
	kindDirectory
)

// String returns the string representation of the path kind.
func (k pathKind) String() string {
	switch k {
	case kindAbsent:
		return "absent"
	case kindFile:
		return "file"
	case kindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// classify reports what currently sits at path. The answer is a snapshot;
// callers racing the file system must tolerate it being stale by the time
// they act on it.
func classify(path string) pathKind {
	info, err := os.Lstat(path)
	if err != nil {
		return kindAbsent
	}
	if info.IsDir() {
		return kindDirectory
	}
	return kindFile
}
