package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	ifs "github.com/bpnn/routeplan/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "geocode/cache.snap")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "geocode/cache.snap", []byte("v1")))
	require.NoError(t, store.Put(ctx, "geocode/other.snap", []byte("other")))
	require.NoError(t, store.Put(ctx, "plans/p1.xlsx", []byte("xlsx")))

	data, err := store.Get(ctx, "geocode/cache.snap")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)

	// Returned slices are owned by the caller.
	data[0] = 'X'
	again, err := store.Get(ctx, "geocode/cache.snap")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), again)

	require.NoError(t, store.Put(ctx, "geocode/cache.snap", []byte("v2")))
	data, err = store.Get(ctx, "geocode/cache.snap")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	names, err := store.List(ctx, "geocode/")
	require.NoError(t, err)
	assert.Equal(t, []string{"geocode/cache.snap", "geocode/other.snap"}, names)

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, names, 3)

	require.NoError(t, store.Delete(ctx, "geocode/other.snap"))
	require.NoError(t, store.Delete(ctx, "geocode/other.snap"))
	_, err = store.Get(ctx, "geocode/other.snap")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(t.TempDir()))
}

func TestLocalStore_EmptyBlob(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "empty", nil))
	data, err := store.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestLocalStore_InvalidName(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"", "../escape", "/abs"} {
		err := store.Put(ctx, name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestLocalStore_MissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "not-yet"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_WriteFaultKeepsOldContent(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "cache.snap", []byte("old")))

	ffs := ifs.NewFaultyFS(nil)
	ffs.Set(ifs.Fault{FailAfterBytes: -1, FailOnSync: true})
	store.fsys = ffs

	err := store.Put(ctx, "cache.snap", []byte("new"))
	assert.ErrorIs(t, err, ifs.ErrInjected)

	raw, err := os.ReadFile(filepath.Join(dir, "cache.snap"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(raw))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"cache.snap"}, names)
}

func TestMemoryStore_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore()
	assert.ErrorIs(t, store.Put(ctx, "a", nil), context.Canceled)
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

type failingStore struct {
	Store
	getErr error
}

func (f failingStore) Get(ctx context.Context, name string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Store.Get(ctx, name)
}

func TestTieredStore(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryStore()
	local := NewMemoryStore()
	store := NewTieredStore(remote, local, nil)

	testStore(t, store)

	// Read-through fills the local tier.
	require.NoError(t, remote.Put(ctx, "only-remote", []byte("r")))
	data, err := store.Get(ctx, "only-remote")
	require.NoError(t, err)
	assert.Equal(t, []byte("r"), data)

	cached, err := local.Get(ctx, "only-remote")
	require.NoError(t, err)
	assert.Equal(t, []byte("r"), cached)

	// A broken local tier does not hide the remote blob.
	broken := NewTieredStore(remote, failingStore{Store: local, getErr: errors.New("disk gone")}, nil)
	data, err = broken.Get(ctx, "only-remote")
	require.NoError(t, err)
	assert.Equal(t, []byte("r"), data)
}

func TestTieredStore_RemoteIsAuthoritative(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryStore()
	local := NewMemoryStore()
	store := NewTieredStore(remote, local, nil)

	require.NoError(t, local.Put(ctx, "snap", []byte("stale")))
	require.NoError(t, remote.Put(ctx, "snap", []byte("fresh")))

	data, err := store.Get(ctx, "snap")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), data)

	refreshed, err := local.Get(ctx, "snap")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), refreshed)

	// Gone remotely means gone, whatever the local copy holds.
	require.NoError(t, local.Put(ctx, "orphan", []byte("old")))
	_, err = store.Get(ctx, "orphan")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTieredStore_FallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryStore()
	local := NewMemoryStore()
	remoteErr := errors.New("bucket unreachable")
	store := NewTieredStore(failingStore{Store: remote, getErr: remoteErr}, local, nil)

	require.NoError(t, local.Put(ctx, "snap", []byte("cached")))
	data, err := store.Get(ctx, "snap")
	require.NoError(t, err)
	assert.Equal(t, []byte("cached"), data)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, remoteErr)
}
