// Package catalog implements a metadata-only target that records every
// extracted object in an XDR manifest.
//
// The catalog never reads object content, so a catalog run measures what a
// migration would produce (paths, ownership, modes, times, link targets)
// without transferring any data.
package catalog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/model"
	"github.com/marmos91/dittosync/pkg/storage"
)

// Name is the target name.
const Name = "catalog"

// Config configures the catalog target.
type Config struct {
	// Path is the manifest file to create.
	Path string `mapstructure:"path" validate:"required" yaml:"path"`
}

// Catalog is a storage.VerifiableTarget writing an XDR manifest.
//
// Thread Safety:
// UpdateObject may be called from many workers; writes are serialized.
type Catalog struct {
	mu      sync.Mutex
	w       *bufio.Writer
	closer  io.Closer
	index   map[string]Entry
	written int
	closed  bool
}

// Create creates (or truncates) the manifest at config.Path.
func Create(config Config) (*Catalog, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("catalog: path is required")
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("catalog: create directory: %w", err)
	}

	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("catalog: create manifest: %w", err)
	}

	return NewWriter(file), nil
}

// NewWriter returns a catalog writing to w. If w is an io.Closer it is closed
// by Close.
func NewWriter(w io.Writer) *Catalog {
	c := &Catalog{
		w:     bufio.NewWriter(w),
		index: make(map[string]Entry),
	}
	if closer, ok := w.(io.Closer); ok {
		c.closer = closer
	}
	return c
}

func (c *Catalog) Name() string { return Name }

// UpdateObject appends an entry for obj to the manifest.
func (c *Catalog) UpdateObject(ctx context.Context, obj *model.SyncObject) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := EntryFromObject(obj)
	frame, err := encodeEntry(&entry)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("catalog: closed")
	}

	if _, err := c.w.Write(frame); err != nil {
		return fmt.Errorf("catalog: write entry %s: %w", entry.Path, err)
	}

	c.index[entry.Path] = entry
	c.written++

	logger.Debug("catalog: %s %s owner=%s group=%s mode=%s",
		entry.Type, entry.Path, entry.Owner, entry.Group, entry.Mode)
	return nil
}

// LoadObject rebuilds the object recorded for relativePath during this run.
func (c *Catalog) LoadObject(_ context.Context, relativePath string) (*model.SyncObject, error) {
	c.mu.Lock()
	entry, ok := c.index[relativePath]
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("catalog: %s: %w", relativePath, storage.ErrObjectNotFound)
	}

	return entry.Object(c)
}

// Written returns the number of entries recorded.
func (c *Catalog) Written() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written
}

// Close flushes the manifest and closes the underlying file.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	err := c.w.Flush()
	if c.closer != nil {
		if cerr := c.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("catalog: close: %w", err)
	}
	return nil
}
