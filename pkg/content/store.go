package content

import (
	"context"
	"io"
)

// ContentID is an opaque identifier for a blob in a content store.
//
// Sources use the first list file field as the ID of a container; the
// content target uses the extracted object's relative path.
type ContentID string

// ============================================================================
// ContentStore Interface
// ============================================================================

// ContentStore provides read access to raw object bytes.
//
// The store manages only bytes. Paths, ownership, permissions and times
// travel with the SyncObject metadata and never reach the store.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
// Concurrent writes to the same ContentID are last-write-wins.
type ContentStore interface {
	// ReadContent returns a reader for the content identified by the given ID.
	//
	// The caller is responsible for closing the reader.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - id: Content identifier to read
	//
	// Returns:
	//   - io.ReadCloser: Reader for the content (must be closed by caller)
	//   - error: ErrContentNotFound if content doesn't exist, or context/IO errors
	ReadContent(ctx context.Context, id ContentID) (io.ReadCloser, error)

	// GetContentSize returns the size of the content in bytes without
	// reading it.
	//
	// Returns:
	//   - uint64: Size of the content in bytes
	//   - error: ErrContentNotFound if content doesn't exist, or context/IO errors
	GetContentSize(ctx context.Context, id ContentID) (uint64, error)

	// ContentExists checks if content with the given ID exists.
	//
	// Returns:
	//   - bool: True if content exists, false otherwise
	//   - error: Only for context cancellation or storage access failures,
	//     NOT for non-existent content (returns false, nil in that case)
	ContentExists(ctx context.Context, id ContentID) (bool, error)
}

// ============================================================================
// WritableContentStore Interface
// ============================================================================

// WritableContentStore extends ContentStore with whole-object writes and
// deletion. It backs the content target and test fixtures.
type WritableContentStore interface {
	ContentStore

	// WriteContent writes the entire content in one operation, replacing
	// any existing content with the same ID.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - id: Content identifier (created if doesn't exist, replaced if exists)
	//   - data: Complete content data
	WriteContent(ctx context.Context, id ContentID, data []byte) error

	// Delete removes content from the store. Deleting non-existent content
	// succeeds.
	Delete(ctx context.Context, id ContentID) error
}
