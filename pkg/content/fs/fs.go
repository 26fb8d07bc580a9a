// Package fs implements filesystem-based content storage.
package fs

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/marmos91/dittosync/pkg/content"
)

// maxNameLength keeps every path element under the common 255 byte limit.
const maxNameLength = 254

// FSContentStore implements WritableContentStore on the local filesystem.
//
// Content IDs are hex-encoded to make them filesystem-safe, so list file
// identifiers and relative paths containing separators or odd bytes map to a
// single flat name. Long IDs are split into nested directories whose names
// end in '~', which never appears in a hex name.
//
// Thread Safety:
// Writes go to a temporary file that is renamed into place, so readers see
// either the old or the new content, never a partial write.
type FSContentStore struct {
	basePath string
}

// NewFSContentStore creates a filesystem content store rooted at basePath,
// creating the directory with permissions 0755 if needed.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - basePath: Root directory for storing content files
//
// Returns:
//   - *FSContentStore: Initialized store
//   - error: Returns error if directory creation fails or context is cancelled
func NewFSContentStore(ctx context.Context, basePath string) (*FSContentStore, error) {
	// ========================================================================
	// Step 1: Check context before filesystem operation
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 2: Create the base directory if it doesn't exist
	// ========================================================================

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSContentStore{basePath: basePath}, nil
}

// BasePath returns the root directory of the store.
func (r *FSContentStore) BasePath() string {
	return r.basePath
}

// getFilePath returns the full path for a given content ID. It performs no
// I/O.
func (r *FSContentStore) getFilePath(id content.ContentID) string {
	name := hex.EncodeToString([]byte(id))

	parts := []string{r.basePath}
	for len(name) > maxNameLength {
		parts = append(parts, name[:maxNameLength-1]+"~")
		name = name[maxNameLength-1:]
	}

	return filepath.Join(append(parts, name)...)
}

// ReadContent opens the content file. The caller closes it.
func (r *FSContentStore) ReadContent(ctx context.Context, id content.ContentID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(r.getFilePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to open content: %w", err)
	}

	return file, nil
}

// GetContentSize stats the content file.
func (r *FSContentStore) GetContentSize(ctx context.Context, id content.ContentID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := os.Stat(r.getFilePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return 0, fmt.Errorf("failed to stat content: %w", err)
	}

	return uint64(info.Size()), nil
}

// ContentExists checks for the content file.
func (r *FSContentStore) ContentExists(ctx context.Context, id content.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(r.getFilePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check content existence: %w", err)
	}

	return true, nil
}

// WriteContent writes data to a temporary file next to the target and renames
// it into place.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - id: Content identifier for the new content
//   - data: Data to write
//
// Returns:
//   - error: Returns error if write fails or context is cancelled
func (r *FSContentStore) WriteContent(ctx context.Context, id content.ContentID, data []byte) error {
	// ========================================================================
	// Step 1: Check context and validate the ID
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := content.ValidateID(id); err != nil {
		return err
	}

	filePath := r.getFilePath(id)
	dir := filepath.Dir(filePath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create content directory: %w", err)
	}

	// ========================================================================
	// Step 2: Write to a temporary file
	// ========================================================================

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write content: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close content file: %w", err)
	}

	// ========================================================================
	// Step 3: Rename into place
	// ========================================================================

	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set content permissions: %w", err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to commit content: %w", err)
	}

	return nil
}

// Delete removes the content file. Missing content is not an error.
func (r *FSContentStore) Delete(ctx context.Context, id content.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(r.getFilePath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete content: %w", err)
	}

	return nil
}
