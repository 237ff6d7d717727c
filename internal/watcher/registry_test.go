package watcher

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilapp/vigil/internal/errors"
)

func TestRegistry_Register(t *testing.T) {
	fb := newFakeBackend()
	r := newRegistry(fb)

	h1, already, err := r.register("/a")
	require.NoError(t, err)
	assert.False(t, already)

	h2, already, err := r.register("/a")
	require.NoError(t, err)
	assert.True(t, already, "second registration should be reported as existing")
	assert.Equal(t, h1, h2)

	assert.Equal(t, 1, r.size())
	assert.True(t, r.contains("/a"))
	assert.False(t, r.contains("/b"))
}

func TestRegistry_RegisterBackendFailure(t *testing.T) {
	fb := newFakeBackend()
	fb.failOn["/a"] = fmt.Errorf("watch limit reached")
	r := newRegistry(fb)

	_, _, err := r.register("/a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrWatchFailed))
	assert.Equal(t, 0, r.size())
}

func TestRegistry_Resolve(t *testing.T) {
	fb := newFakeBackend()
	r := newRegistry(fb)

	h, _, err := r.register("/a")
	require.NoError(t, err)

	dir, ok := r.resolve(h)
	assert.True(t, ok)
	assert.Equal(t, "/a", dir)

	_, ok = r.resolve(handle(9999))
	assert.False(t, ok, "released or unknown handles resolve to nothing")
}

func TestRegistry_Unregister(t *testing.T) {
	fb := newFakeBackend()
	r := newRegistry(fb)

	h, _, err := r.register("/a")
	require.NoError(t, err)

	require.NoError(t, r.unregister("/a"))
	assert.Equal(t, 0, r.size())
	_, ok := r.resolve(h)
	assert.False(t, ok)
	assert.Equal(t, []string{"/a"}, fb.releasedPaths())

	// Unknown paths are a no-op, not an error.
	require.NoError(t, r.unregister("/a"))
	require.NoError(t, r.unregister("/never"))
	assert.Len(t, fb.releasedPaths(), 1)
}

func TestRegistry_DropSubtree(t *testing.T) {
	sep := string(filepath.Separator)
	root := sep + "a"
	inside := []string{
		root,
		filepath.Join(root, "b"),
		filepath.Join(root, "b", "c"),
	}
	// Sibling whose name shares the prefix bytes but not the path
	// boundary. It must survive.
	lookalike := sep + "ab"

	fb := newFakeBackend()
	r := newRegistry(fb)
	for _, dir := range append(inside, lookalike) {
		_, _, err := r.register(dir)
		require.NoError(t, err)
	}

	removed, errs := r.dropSubtree(root)
	assert.Empty(t, errs)
	assert.ElementsMatch(t, inside[1:], removed, "dir itself is excluded from the removed list")

	assert.Equal(t, 1, r.size())
	assert.True(t, r.contains(lookalike))
	assert.ElementsMatch(t, inside, fb.releasedPaths())
}

func TestRegistry_Drain(t *testing.T) {
	fb := newFakeBackend()
	r := newRegistry(fb)
	for _, dir := range []string{"/a", "/b", "/c"} {
		_, _, err := r.register(dir)
		require.NoError(t, err)
	}

	released, errs := r.drain()
	assert.Empty(t, errs)
	assert.ElementsMatch(t, []string{"/a", "/b", "/c"}, released)
	assert.Equal(t, 0, r.size())

	// Closed for good: registration now fails.
	_, _, err := r.register("/d")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrClosed))
}
