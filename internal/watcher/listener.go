package watcher

// Listener receives change events from a Watcher.
//
// Hooks run synchronously on whichever goroutine detected the change:
// the Add caller for the initial scan, the watcher's event goroutine
// afterwards. Implementations must not assume a fixed goroutine. A hook
// error is routed to OnError and never stops the watcher.
type Listener interface {
	// OnAddFile reports a file discovered during a scan or created later.
	OnAddFile(path string) error

	// OnAddDirectory reports a directory, always before anything inside it.
	OnAddDirectory(path string) error

	// OnChangeFile reports a content or metadata change to a file.
	OnChangeFile(path string) error

	// OnChangeDirectory reports a metadata change to a directory.
	OnChangeDirectory(path string) error

	// OnRemoveFile reports a file that disappeared.
	OnRemoveFile(path string) error

	// OnRemoveDirectory reports a directory that disappeared. When a whole
	// tree vanishes every tracked directory under it is reported exactly
	// once, the root first, descendants in unspecified order.
	OnRemoveDirectory(path string) error

	// OnError receives hook failures, walk errors, and backend-level
	// failures. path may be empty when the failure is not tied to one
	// path. It is the end of the line: failures here are not reported
	// anywhere else.
	OnError(path string, err error)
}

// ListenerFuncs adapts plain functions to the Listener interface. Nil
// fields ignore their events; a nil Error drops errors silently.
type ListenerFuncs struct {
	AddFile         func(path string) error
	AddDirectory    func(path string) error
	ChangeFile      func(path string) error
	ChangeDirectory func(path string) error
	RemoveFile      func(path string) error
	RemoveDirectory func(path string) error
	Error           func(path string, err error)
}

func (l *ListenerFuncs) OnAddFile(path string) error {
	if l.AddFile == nil {
		return nil
	}
	return l.AddFile(path)
}

func (l *ListenerFuncs) OnAddDirectory(path string) error {
	if l.AddDirectory == nil {
		return nil
	}
	return l.AddDirectory(path)
}

func (l *ListenerFuncs) OnChangeFile(path string) error {
	if l.ChangeFile == nil {
		return nil
	}
	return l.ChangeFile(path)
}

func (l *ListenerFuncs) OnChangeDirectory(path string) error {
	if l.ChangeDirectory == nil {
		return nil
	}
	return l.ChangeDirectory(path)
}

func (l *ListenerFuncs) OnRemoveFile(path string) error {
	if l.RemoveFile == nil {
		return nil
	}
	return l.RemoveFile(path)
}

func (l *ListenerFuncs) OnRemoveDirectory(path string) error {
	if l.RemoveDirectory == nil {
		return nil
	}
	return l.RemoveDirectory(path)
}

func (l *ListenerFuncs) OnError(path string, err error) {
	if l.Error == nil {
		return
	}
	l.Error(path, err)
}
