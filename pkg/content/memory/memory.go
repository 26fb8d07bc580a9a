package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/marmos91/dittosync/pkg/content"
)

// MemoryContentStore implements WritableContentStore using in-memory storage.
//
// It is meant for tests, dry runs and small migrations.
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Data is copied on read and
// write so callers never share buffers with the store.
type MemoryContentStore struct {
	// data stores the content keyed by ContentID
	data map[content.ContentID][]byte

	// mu protects concurrent access to data map
	mu sync.RWMutex
}

// NewMemoryContentStore creates an empty in-memory content store.
//
// Returns:
//   - *MemoryContentStore: Initialized store
//   - error: Only returns error if context is cancelled
func NewMemoryContentStore(ctx context.Context) (*MemoryContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &MemoryContentStore{
		data: make(map[content.ContentID][]byte),
	}, nil
}

// ReadContent returns a reader over a copy of the content.
func (s *MemoryContentStore) ReadContent(ctx context.Context, id content.ContentID) (io.ReadCloser, error) {
	// ========================================================================
	// Step 1: Check context before acquiring lock
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 2: Acquire read lock and copy content
	// ========================================================================

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.data[id]
	if !exists {
		return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	return io.NopCloser(bytes.NewReader(dataCopy)), nil
}

// GetContentSize returns the length of the stored byte slice.
func (s *MemoryContentStore) GetContentSize(ctx context.Context, id content.ContentID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.data[id]
	if !exists {
		return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}

	return uint64(len(data)), nil
}

// ContentExists checks if content with the given ID exists.
func (s *MemoryContentStore) ContentExists(ctx context.Context, id content.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.data[id]
	return exists, nil
}

// WriteContent stores a copy of data under id, replacing existing content.
func (s *MemoryContentStore) WriteContent(ctx context.Context, id content.ContentID, data []byte) error {
	// ========================================================================
	// Step 1: Check context and validate the ID
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := content.ValidateID(id); err != nil {
		return err
	}

	// ========================================================================
	// Step 2: Acquire write lock and store a copy
	// ========================================================================

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[id] = dataCopy
	return nil
}

// Delete removes content. Deleting missing content is a no-op.
func (s *MemoryContentStore) Delete(ctx context.Context, id content.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, id)
	return nil
}

// ListContent returns every stored ID in sorted order.
func (s *MemoryContentStore) ListContent(ctx context.Context) ([]content.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]content.ContentID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids, nil
}
