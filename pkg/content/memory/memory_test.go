package memory

import (
	"context"
	"testing"

	"github.com/marmos91/dittosync/pkg/content"
	contenttesting "github.com/marmos91/dittosync/pkg/content/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryContentStore runs the complete ContentStore test suite
// against the MemoryContentStore implementation.
func TestMemoryContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func() content.WritableContentStore {
			store, err := NewMemoryContentStore(context.Background())
			if err != nil {
				t.Fatalf("Failed to create MemoryContentStore: %v", err)
			}
			return store
		},
	}

	suite.Run(t)
}

func TestMemoryContentStore_ListContent(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryContentStore(ctx)
	require.NoError(t, err)

	require.NoError(t, store.WriteContent(ctx, "b", []byte("2")))
	require.NoError(t, store.WriteContent(ctx, "a", []byte("1")))

	ids, err := store.ListContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, []content.ContentID{"a", "b"}, ids)
}

func TestMemoryContentStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryContentStore(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
