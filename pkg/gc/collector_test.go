package gc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marmos91/dittosync/pkg/storage/cas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putClip(t *testing.T, archive *cas.Archive, id, payload string) {
	t.Helper()
	_, err := archive.PutClip(context.Background(), id, cas.Clip{Payload: []byte(payload)})
	require.NoError(t, err)
}

func openArchive(t *testing.T) *cas.Archive {
	t.Helper()
	archive, err := cas.Open(context.Background(), cas.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { archive.Close() })
	return archive
}

func TestRunNow_DeletesOrphans(t *testing.T) {
	ctx := context.Background()
	archive := openArchive(t)

	putClip(t, archive, "a", "v1")
	putClip(t, archive, "a", "v2")
	putClip(t, archive, "b", "kept")
	putClip(t, archive, "c", "dropped")
	require.NoError(t, archive.DeleteClip(ctx, "c"))

	collector, err := NewCollector(archive, Config{BatchSize: 1})
	require.NoError(t, err)

	stats, err := collector.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.ReferencedCount)
	assert.Equal(t, uint64(4), stats.ExistingCount)
	assert.Equal(t, uint64(2), stats.OrphanedCount)
	assert.Equal(t, uint64(2), stats.DeletedCount)
	assert.Zero(t, stats.FailedCount)

	blobs, err := archive.ListBlobs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []cas.Hash{
		cas.HashBytes([]byte("v2")),
		cas.HashBytes([]byte("kept")),
	}, blobs)
}

func TestRunNow_DryRun(t *testing.T) {
	ctx := context.Background()
	archive := openArchive(t)

	putClip(t, archive, "a", "v1")
	putClip(t, archive, "a", "v2")

	collector, err := NewCollector(archive, Config{DryRun: true})
	require.NoError(t, err)

	stats, err := collector.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.OrphanedCount)
	assert.Zero(t, stats.DeletedCount)

	blobs, err := archive.ListBlobs(ctx)
	require.NoError(t, err)
	assert.Len(t, blobs, 2)
}

type failingStore struct {
	orphans  []cas.Hash
	batchErr error
	failures map[cas.Hash]error
	listErr  error
}

func (s *failingStore) ReferencedBlobs(context.Context) ([]cas.Hash, error) { return nil, nil }

func (s *failingStore) ListBlobs(context.Context) ([]cas.Hash, error) {
	return s.orphans, s.listErr
}

func (s *failingStore) DeleteBlobs(context.Context, []cas.Hash) (map[cas.Hash]error, error) {
	return s.failures, s.batchErr
}

func TestRunNow_Failures(t *testing.T) {
	h1 := cas.HashBytes([]byte("1"))
	h2 := cas.HashBytes([]byte("2"))

	tests := []struct {
		name        string
		store       *failingStore
		wantErr     bool
		wantDeleted uint64
		wantFailed  uint64
	}{
		{
			name:    "list error",
			store:   &failingStore{listErr: errors.New("boom")},
			wantErr: true,
		},
		{
			name:       "batch error counts whole batch",
			store:      &failingStore{orphans: []cas.Hash{h1, h2}, batchErr: errors.New("txn")},
			wantFailed: 2,
		},
		{
			name:        "partial failure",
			store:       &failingStore{orphans: []cas.Hash{h1, h2}, failures: map[cas.Hash]error{h2: errors.New("locked")}},
			wantDeleted: 1,
			wantFailed:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector, err := NewCollector(tt.store, Config{})
			require.NoError(t, err)

			stats, err := collector.RunNow(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDeleted, stats.DeletedCount)
			assert.Equal(t, tt.wantFailed, stats.FailedCount)
		})
	}
}

func TestStartStop(t *testing.T) {
	archive := openArchive(t)
	putClip(t, archive, "a", "v1")
	putClip(t, archive, "a", "v2")

	collector, err := NewCollector(archive, Config{Enabled: true, Interval: 10 * time.Millisecond})
	require.NoError(t, err)

	collector.Start()
	require.Eventually(t, func() bool {
		blobs, err := archive.ListBlobs(context.Background())
		return err == nil && len(blobs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, collector.Stop(ctx))
}

func TestNewCollector(t *testing.T) {
	_, err := NewCollector(nil, Config{})
	require.Error(t, err)

	collector, err := NewCollector(&failingStore{}, Config{})
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, collector.config.Interval)
	assert.Equal(t, 1000, collector.config.BatchSize)

	// Disabled collectors ignore Start and Stop.
	collector.Start()
	require.NoError(t, collector.Stop(context.Background()))
}
