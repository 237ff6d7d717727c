package watcher

// backend is the platform notification source. Implementations observe
// single directories (no recursion; the walker handles that) and report
// raw changes until closed.
type backend interface {
	// name identifies the implementation in logs.
	name() string

	// register starts observing a directory and returns its handle.
	register(dir string) (handle, error)

	// deregister stops observing a directory. Releasing a handle the
	// backend no longer knows is a no-op; directories often vanish
	// before their watch is released.
	deregister(h handle) error

	// notifications is the raw change stream. Closed by close.
	notifications() <-chan notification

	// errors reports backend-level failures such as queue overflow.
	// Closed by close.
	errors() <-chan error

	// close releases every watch, stops the reader, and closes both
	// channels. Idempotent.
	close() error
}
