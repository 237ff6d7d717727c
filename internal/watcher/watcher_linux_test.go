//go:build linux

package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestTranslateMask(t *testing.T) {
	tests := []struct {
		name string
		mask uint32
		wd   int32
		arg  string
		want notification
		ok   bool
	}{
		{
			name: "create file",
			mask: unix.IN_CREATE,
			wd:   1,
			arg:  "a.txt",
			want: notification{Handle: 1, Name: "a.txt", Kind: notifyCreated},
			ok:   true,
		},
		{
			name: "create directory",
			mask: unix.IN_CREATE | unix.IN_ISDIR,
			wd:   1,
			arg:  "sub",
			want: notification{Handle: 1, Name: "sub", Kind: notifyCreated, IsDir: true},
			ok:   true,
		},
		{
			name: "moved in",
			mask: unix.IN_MOVED_TO,
			wd:   2,
			arg:  "in.txt",
			want: notification{Handle: 2, Name: "in.txt", Kind: notifyCreated},
			ok:   true,
		},
		{
			name: "delete entry",
			mask: unix.IN_DELETE | unix.IN_ISDIR,
			wd:   1,
			arg:  "sub",
			want: notification{Handle: 1, Name: "sub", Kind: notifyDeleted, IsDir: true},
			ok:   true,
		},
		{
			name: "moved out",
			mask: unix.IN_MOVED_FROM,
			wd:   1,
			arg:  "out.txt",
			want: notification{Handle: 1, Name: "out.txt", Kind: notifyDeleted},
			ok:   true,
		},
		{
			name: "delete self",
			mask: unix.IN_DELETE_SELF,
			wd:   3,
			arg:  "",
			want: notification{Handle: 3, Name: "", Kind: notifyDeleted, IsDir: true},
			ok:   true,
		},
		{
			name: "move self",
			mask: unix.IN_MOVE_SELF,
			wd:   3,
			arg:  "",
			want: notification{Handle: 3, Name: "", Kind: notifyDeleted, IsDir: true},
			ok:   true,
		},
		{
			name: "modify file",
			mask: unix.IN_MODIFY,
			wd:   1,
			arg:  "a.txt",
			want: notification{Handle: 1, Name: "a.txt", Kind: notifyModified},
			ok:   true,
		},
		{
			name: "attrib change on entry",
			mask: unix.IN_ATTRIB,
			wd:   1,
			arg:  "a.txt",
			want: notification{Handle: 1, Name: "a.txt", Kind: notifyModified},
			ok:   true,
		},
		{
			name: "attrib change on watched dir dropped",
			mask: unix.IN_ATTRIB | unix.IN_ISDIR,
			wd:   1,
			arg:  "",
			ok:   false,
		},
		{
			name: "ignored dropped",
			mask: unix.IN_IGNORED,
			wd:   1,
			arg:  "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := translateMask(tt.mask, tt.wd, tt.arg)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestInotifyBackend_Lifecycle(t *testing.T) {
	b, err := newBackend(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.Equal(t, "inotify", b.name())
	assert.NotNil(t, b.notifications())
	assert.NotNil(t, b.errors())

	h, err := b.register(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, b.deregister(h))

	// Unknown handles are tolerated so release races stay quiet.
	assert.NoError(t, b.deregister(handle(4096)))

	assert.NoError(t, b.close())
	assert.NoError(t, b.close(), "close should be idempotent")
}

func TestInotifyBackend_RegisterMissingDir(t *testing.T) {
	b, err := newBackend(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.close() })

	_, err = b.register(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestInotifyBackend_DeliversCreate(t *testing.T) {
	b, err := newBackend(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.close() })

	dir := t.TempDir()
	h, err := b.register(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case n := <-b.notifications():
			if n.Handle == h && n.Name == "a.txt" && n.Kind == notifyCreated {
				assert.False(t, n.IsDir)
				return
			}
		case err := <-b.errors():
			t.Fatalf("unexpected backend error: %v", err)
		case <-deadline:
			t.Fatal("timed out waiting for create notification")
		}
	}
}
