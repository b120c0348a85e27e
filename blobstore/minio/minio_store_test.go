package minio

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/bpnn/routeplan/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_KeyMapping(t *testing.T) {
	s := NewStore(nil, "b", "geocode/")

	assert.Equal(t, "geocode/cache.snap", s.key("cache.snap"))
	assert.Equal(t, "geocode/", s.listPrefix(""))
	assert.Equal(t, "geocode/sub/", s.listPrefix("sub/"))
	assert.Equal(t, "geocode/ca", s.listPrefix("ca"))
	assert.Equal(t, "cache.snap", s.relative("geocode/cache.snap"))

	bare := NewStore(nil, "b", "")
	assert.Equal(t, "", bare.listPrefix(""))
	assert.Equal(t, "x", bare.relative("x"))
}

func TestTranslate(t *testing.T) {
	err := translate(minio.ErrorResponse{Code: "NoSuchKey"})
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	other := minio.ErrorResponse{Code: "AccessDenied"}
	assert.Equal(t, other, translate(other))
}

// TestStore_Integration requires a running MinIO instance at
// ROUTEPLAN_TEST_MINIO_ENDPOINT.
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("ROUTEPLAN_TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("ROUTEPLAN_TEST_MINIO_ENDPOINT not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := Dial(ctx, Config{
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "routeplan-test",
		Prefix:    "it/",
	})
	require.NoError(t, err)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, "cache.snap", []byte("hello minio")))
	data, err := store.Get(ctx, "cache.snap")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello minio"), data)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "cache.snap")

	require.NoError(t, store.Delete(ctx, "cache.snap"))
	_, err = store.Get(ctx, "cache.snap")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
