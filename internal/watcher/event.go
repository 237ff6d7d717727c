package watcher

// notifyKind classifies a raw backend notification.
type notifyKind int

const (
	// notifyCreated is reported when an entry appears in a watched directory.
	notifyCreated notifyKind = iota
	// notifyModified is reported when an entry's content or metadata changes.
	notifyModified
	// notifyDeleted is reported when an entry disappears, including the
	// watched directory itself.
	notifyDeleted
)

// String returns the string representation of the notification kind.
func (k notifyKind) String() string {
	switch k {
	case notifyCreated:
		return "created"
	case notifyModified:
		return "modified"
	case notifyDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// handle identifies one watched directory inside the backend. On Linux it
// is the inotify watch descriptor; elsewhere it is synthesized.
type handle int

// notification is a raw change report from the platform backend, before
// reconciliation against the live tree.
type notification struct {
	// Handle names the watched directory that saw the change.
	Handle handle

	// Name is the affected entry relative to the watched directory.
	// Empty means the watched directory itself.
	Name string

	// Kind is what happened.
	Kind notifyKind

	// IsDir is a backend hint that the affected entry was a directory.
	// Deletions rely on it to tell a duplicate directory report from a
	// file removal; by then the path can no longer be inspected.
	IsDir bool
}
