package watcher

import "log/slog"

// LogListener is a Listener that records every event through slog. The
// daemon wires it as its consumer; it also serves as a placeholder
// before a real consumer exists.
type LogListener struct {
	log *slog.Logger
}

// NewLogListener creates a LogListener writing to log. A nil log uses
// slog's default.
func NewLogListener(log *slog.Logger) *LogListener {
	if log == nil {
		log = slog.Default()
	}
	return &LogListener{log: log}
}

func (l *LogListener) OnAddFile(path string) error {
	l.log.Info("added file", "path", path)
	return nil
}

func (l *LogListener) OnAddDirectory(path string) error {
	l.log.Info("added directory", "path", path)
	return nil
}

func (l *LogListener) OnChangeFile(path string) error {
	l.log.Info("changed file", "path", path)
	return nil
}

func (l *LogListener) OnChangeDirectory(path string) error {
	l.log.Info("changed directory", "path", path)
	return nil
}

func (l *LogListener) OnRemoveFile(path string) error {
	l.log.Info("removed file", "path", path)
	return nil
}

func (l *LogListener) OnRemoveDirectory(path string) error {
	l.log.Info("removed directory", "path", path)
	return nil
}

func (l *LogListener) OnError(path string, err error) {
	if path == "" {
		l.log.Error("watch error", "error", err)
		return
	}
	l.log.Error("watch error", "path", path, "error", err)
}
