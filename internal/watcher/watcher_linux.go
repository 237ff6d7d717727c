//go:build linux

package watcher

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/vigilapp/vigil/internal/errors"
)

// inotifyMask selects the kernel events one directory watch reports.
// Moves are surfaced as deletion (moved_from) and creation (moved_to);
// pairing them back into renames is out of contract.
const inotifyMask = unix.IN_CREATE |
	unix.IN_MODIFY |
	unix.IN_ATTRIB |
	unix.IN_DELETE |
	unix.IN_DELETE_SELF |
	unix.IN_MOVED_FROM |
	unix.IN_MOVED_TO |
	unix.IN_MOVE_SELF

// inotifyBackend reports directory changes through the kernel's inotify
// interface. Each registered directory holds one watch descriptor, which
// doubles as its handle. A self-pipe lets close interrupt the otherwise
// blocking poll.
type inotifyBackend struct {
	fd     int
	wakeR  int
	wakeW  int
	logger *slog.Logger

	notifC chan notification
	errC   chan error
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func newBackend(logger *slog.Logger) (backend, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify_init1: %w", err)
	}

	var pipe [2]int
	if err := unix.Pipe2(pipe[:], unix.O_CLOEXEC); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("pipe2: %w", err)
	}

	b := &inotifyBackend{
		fd:     fd,
		wakeR:  pipe[0],
		wakeW:  pipe[1],
		logger: logger,
		notifC: make(chan notification, 256),
		errC:   make(chan error, 8),
		done:   make(chan struct{}),
	}
	b.wg.Add(1)
	go b.readLoop()
	return b, nil
}

func (b *inotifyBackend) name() string { return "inotify" }

func (b *inotifyBackend) register(dir string) (handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, errors.ErrClosed
	}

	wd, err := unix.InotifyAddWatch(b.fd, dir, inotifyMask)
	if err != nil {
		return 0, fmt.Errorf("inotify_add_watch %s: %w", dir, err)
	}
	b.logger.Debug("watch added", "path", dir, "wd", wd)
	return handle(wd), nil
}

func (b *inotifyBackend) deregister(h handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}

	// The kernel drops watches on its own when the directory is deleted;
	// EINVAL here just means the descriptor is already dead.
	if _, err := unix.InotifyRmWatch(b.fd, uint32(h)); err != nil && err != unix.EINVAL {
		return fmt.Errorf("inotify_rm_watch %d: %w", h, err)
	}
	return nil
}

func (b *inotifyBackend) notifications() <-chan notification { return b.notifC }

func (b *inotifyBackend) errors() <-chan error { return b.errC }

func (b *inotifyBackend) close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.done)
	// Wake the poll so the read loop notices shutdown.
	if _, err := unix.Write(b.wakeW, []byte{0}); err != nil {
		b.logger.Warn("wake pipe write failed", "error", err)
	}
	b.wg.Wait()

	err := unix.Close(b.fd)
	unix.Close(b.wakeR)
	unix.Close(b.wakeW)
	close(b.notifC)
	close(b.errC)

	if err != nil {
		return fmt.Errorf("close inotify fd: %w", err)
	}
	return nil
}

// readLoop blocks in poll until the kernel has events or close wakes the
// pipe, then drains the inotify fd. It is the only reader of fd.
func (b *inotifyBackend) readLoop() {
	defer b.wg.Done()

	buf := make([]byte, 64*1024)
	fds := []unix.PollFd{
		{Fd: int32(b.fd), Events: unix.POLLIN},
		{Fd: int32(b.wakeR), Events: unix.POLLIN},
	}

	for {
		if _, err := unix.Poll(fds, -1); err != nil {
			if err == unix.EINTR {
				continue
			}
			b.emitError(fmt.Errorf("poll inotify: %w", err))
			return
		}
		if fds[1].Revents != 0 {
			return
		}
		if fds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		n, err := unix.Read(b.fd, buf)
		switch {
		case err == unix.EINTR || err == unix.EAGAIN:
			continue
		case err != nil:
			b.emitError(fmt.Errorf("read inotify: %w", err))
			return
		case n < unix.SizeofInotifyEvent:
			continue
		}
		b.parseEvents(buf[:n])
	}
}

// parseEvents walks a raw inotify buffer, which packs variable-length
// events back to back: a fixed header followed by Len bytes of
// NUL-padded name.
func (b *inotifyBackend) parseEvents(buf []byte) {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buf) {
		raw := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		nameLen := int(raw.Len)

		if raw.Mask&unix.IN_Q_OVERFLOW != 0 {
			b.emitError(errors.Observation("inotify queue overflowed, events were lost"))
			offset += unix.SizeofInotifyEvent + nameLen
			continue
		}

		var name string
		if nameLen > 0 {
			nb := buf[offset+unix.SizeofInotifyEvent : offset+unix.SizeofInotifyEvent+nameLen]
			if i := bytes.IndexByte(nb, 0); i >= 0 {
				nb = nb[:i]
			}
			name = string(nb)
		}

		if n, ok := translateMask(raw.Mask, raw.Wd, name); ok {
			b.emit(n)
		}
		offset += unix.SizeofInotifyEvent + nameLen
	}
}

// translateMask converts an inotify event into a notification. Self
// events report the watched directory itself: deletion and move of the
// directory count as its removal, while its own attribute changes are
// dropped because the parent watch already reports them when one exists.
func translateMask(mask uint32, wd int32, name string) (notification, bool) {
	n := notification{
		Handle: handle(wd),
		Name:   name,
		IsDir:  mask&unix.IN_ISDIR != 0,
	}

	switch {
	case mask&(unix.IN_DELETE_SELF|unix.IN_MOVE_SELF) != 0:
		n.Name = ""
		n.Kind = notifyDeleted
		n.IsDir = true
	case mask&(unix.IN_CREATE|unix.IN_MOVED_TO) != 0:
		n.Kind = notifyCreated
	case mask&(unix.IN_DELETE|unix.IN_MOVED_FROM) != 0:
		n.Kind = notifyDeleted
	case mask&(unix.IN_MODIFY|unix.IN_ATTRIB) != 0:
		if name == "" {
			return notification{}, false
		}
		n.Kind = notifyModified
	default:
		// IN_IGNORED and friends.
		return notification{}, false
	}
	return n, true
}

func (b *inotifyBackend) emit(n notification) {
	select {
	case b.notifC <- n:
	case <-b.done:
	}
}

func (b *inotifyBackend) emitError(err error) {
	select {
	case b.errC <- err:
	case <-b.done:
	}
}
