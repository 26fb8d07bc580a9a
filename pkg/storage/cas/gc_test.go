package cas

import (
	"context"
	"testing"

	"github.com/marmos91/dittosync/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferencedBlobs(t *testing.T) {
	ctx := context.Background()
	archive := openTestArchive(t)

	_, err := archive.PutClip(ctx, "a", Clip{Payload: []byte("shared")})
	require.NoError(t, err)
	_, err = archive.PutClip(ctx, "b", Clip{Payload: []byte("shared")})
	require.NoError(t, err)
	_, err = archive.PutClip(ctx, "dir", Clip{Directory: true})
	require.NoError(t, err)

	referenced, err := archive.ReferencedBlobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Hash{HashBytes([]byte("shared"))}, referenced)
}

func TestListBlobs_AfterReplace(t *testing.T) {
	ctx := context.Background()
	archive := openTestArchive(t)

	_, err := archive.PutClip(ctx, "a", Clip{Payload: []byte("v1")})
	require.NoError(t, err)
	_, err = archive.PutClip(ctx, "a", Clip{Payload: []byte("v2")})
	require.NoError(t, err)

	blobs, err := archive.ListBlobs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Hash{HashBytes([]byte("v1")), HashBytes([]byte("v2"))}, blobs)

	referenced, err := archive.ReferencedBlobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Hash{HashBytes([]byte("v2"))}, referenced)
}

func TestDeleteBlobs(t *testing.T) {
	ctx := context.Background()
	archive := openTestArchive(t)

	h, err := archive.Put(ctx, []byte("orphan"))
	require.NoError(t, err)

	failures, err := archive.DeleteBlobs(ctx, []Hash{h, HashBytes([]byte("never stored"))})
	require.NoError(t, err)
	assert.Empty(t, failures)

	_, err = archive.Get(ctx, h)
	require.ErrorIs(t, err, ErrBlobNotFound)
}

func TestDeleteClip(t *testing.T) {
	ctx := context.Background()
	archive := openTestArchive(t)

	_, err := archive.PutClip(ctx, "a", Clip{Payload: []byte("data")})
	require.NoError(t, err)

	require.NoError(t, archive.DeleteClip(ctx, "a"))
	_, err = archive.Directive(ctx, "a")
	require.ErrorIs(t, err, storage.ErrObjectNotFound)

	require.ErrorIs(t, archive.DeleteClip(ctx, "a"), storage.ErrObjectNotFound)

	// The payload survives until collection.
	blobs, err := archive.ListBlobs(ctx)
	require.NoError(t, err)
	assert.Len(t, blobs, 1)
}
