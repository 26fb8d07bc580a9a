// Package cas implements a content-addressable clip archive on BadgerDB.
//
// Blobs are addressed by their BLAKE3 digest and stored zstd-compressed, so
// identical payloads are kept once. A clip is a named container: a CBOR
// directive pointing at its payload blob and carrying the list file row that
// describes the file it was made from.
package cas

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/model"
	"github.com/marmos91/dittosync/pkg/storage"
)

// Name is the source name of every archive.
const Name = "cas"

var (
	// ErrBlobNotFound is returned when a directive references a missing blob.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrIntegrity is returned when a blob does not hash to its address.
	ErrIntegrity = errors.New("blob integrity check failed")
)

// Config configures the archive database.
type Config struct {
	// DBPath is the BadgerDB directory. Ignored when InMemory is set.
	DBPath string `mapstructure:"db_path" validate:"required_without=InMemory" yaml:"db_path"`

	// InMemory keeps the archive in memory only.
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory"`
}

// Clip is the input to PutClip.
type Clip struct {
	Payload     []byte
	ListFileRow string
	Directory   bool
}

// Archive is a BadgerDB-backed clip archive. It is a storage.SyncStorage and
// a storage.DirectiveAware source.
//
// Thread Safety:
// Safe for concurrent use; BadgerDB transactions provide isolation.
type Archive struct {
	db         *badger.DB
	directives atomic.Bool
}

// Open opens or creates an archive.
//
// Parameters:
//   - ctx: Context for cancellation (checked before opening)
//   - config: Database location
//
// Returns:
//   - *Archive: Open archive, closed with Close
//   - error: Error if the database cannot be opened
func Open(ctx context.Context, config Config) (*Archive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if config.DBPath == "" {
			return nil, fmt.Errorf("cas: db_path is required")
		}
		opts = badger.DefaultOptions(config.DBPath)
	}

	// Blobs are already zstd-compressed.
	opts = opts.
		WithLogger(badgerLogger{}).
		WithLoggingLevel(badger.WARNING).
		WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &Archive{db: db}, nil
}

func (a *Archive) Name() string { return Name }

// SetDirectivesExpected makes LoadObject attach each clip's recorded list
// file row to summaries that arrive without one.
func (a *Archive) SetDirectivesExpected(expected bool) { a.directives.Store(expected) }
func (a *Archive) DirectivesExpected() bool            { return a.directives.Load() }

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// ============================================================================
// Blobs
// ============================================================================

// Put stores data and returns its address. Storing the same bytes twice
// writes them once.
func (a *Archive) Put(ctx context.Context, data []byte) (Hash, error) {
	if err := ctx.Err(); err != nil {
		return Hash{}, err
	}

	h := HashBytes(data)
	err := a.db.Update(func(txn *badger.Txn) error {
		return putBlob(txn, h, data)
	})
	if err != nil {
		return Hash{}, fmt.Errorf("put blob %s: %w", h, err)
	}

	return h, nil
}

// putBlob writes the blob value: uvarint uncompressed size, then zstd frame.
func putBlob(txn *badger.Txn, h Hash, data []byte) error {
	_, err := txn.Get(keyBlob(h))
	if err == nil {
		return nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}

	value := binary.AppendUvarint(nil, uint64(len(data)))
	value = append(value, compress(data)...)

	return txn.Set(keyBlob(h), value)
}

// Get returns the bytes stored under h after verifying their digest.
func (a *Archive) Get(ctx context.Context, h Hash) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyBlob(h))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("blob %s: %w", h, ErrBlobNotFound)
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			size, n := binary.Uvarint(val)
			if n <= 0 {
				return fmt.Errorf("blob %s: corrupt size header", h)
			}
			data, err = decompress(val[n:], size)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	if HashBytes(data) != h {
		return nil, fmt.Errorf("blob %s: %w", h, ErrIntegrity)
	}

	return data, nil
}

// ============================================================================
// Clips
// ============================================================================

// PutClip stores a clip under id, replacing any previous clip with that id.
// Directories carry no payload.
func (a *Archive) PutClip(ctx context.Context, id string, clip Clip) (*Directive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, fmt.Errorf("cas: clip id is required")
	}

	directive := &Directive{
		ListFileRow: clip.ListFileRow,
		Directory:   clip.Directory,
	}

	var h Hash
	if !clip.Directory {
		h = HashBytes(clip.Payload)
		directive.Payload = h[:]
		directive.Size = uint64(len(clip.Payload))
	}

	encoded, err := encodeDirective(directive)
	if err != nil {
		return nil, fmt.Errorf("encode directive for %s: %w", id, err)
	}

	err = a.db.Update(func(txn *badger.Txn) error {
		if !clip.Directory {
			if err := putBlob(txn, h, clip.Payload); err != nil {
				return err
			}
		}
		return txn.Set(keyClip(id), encoded)
	})
	if err != nil {
		return nil, fmt.Errorf("put clip %s: %w", id, err)
	}

	logger.Debug("cas: stored clip %s (%d bytes)", id, directive.Size)
	return directive, nil
}

// Directive returns the directive of clip id.
func (a *Archive) Directive(ctx context.Context, id string) (*Directive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var directive *Directive
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyClip(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("clip %s: %w", id, storage.ErrObjectNotFound)
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			directive, err = decodeDirective(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	return directive, nil
}

// ListSummaries returns a summary for every clip in key order. Rows are not
// attached here; LoadObject does that when directives are expected.
func (a *Archive) ListSummaries(ctx context.Context) ([]*model.ObjectSummary, error) {
	var summaries []*model.ObjectSummary

	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixClip)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			id := string(bytes.TrimPrefix(item.Key(), []byte(prefixClip)))

			err := item.Value(func(val []byte) error {
				directive, err := decodeDirective(val)
				if err != nil {
					return fmt.Errorf("clip %s: %w", id, err)
				}
				summaries = append(summaries, model.NewObjectSummary(id, directive.Directory, directive.Size))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

// ============================================================================
// Source
// ============================================================================

// LoadObject opens clip summary.Identifier. With directives expected, the
// clip's recorded list file row is attached to a summary that lacks one. The
// payload is read only when the object's stream is.
func (a *Archive) LoadObject(ctx context.Context, summary *model.ObjectSummary) (*model.SyncObject, error) {
	directive, err := a.Directive(ctx, summary.Identifier)
	if err != nil {
		return nil, err
	}

	if a.DirectivesExpected() {
		if _, ok := summary.ListFileRow(); !ok && directive.ListFileRow != "" {
			summary.SetListFileRow(directive.ListFileRow)
		}
	}

	metadata := model.NewObjectMetadata()
	metadata.Directory = directive.Directory
	metadata.ContentLength = directive.Size
	if directive.Directory {
		metadata.ContentType = model.TypeDirectory
	}

	object := model.NewSyncObject(a, summary.Identifier, metadata, nil, nil)
	if !directive.Directory {
		object.SetLazyStream(func() (io.ReadCloser, error) {
			return a.openPayload(ctx, summary.Identifier, directive)
		})
	}

	return object, nil
}

// DataStream opens the payload of the clip original was loaded from.
func (a *Archive) DataStream(ctx context.Context, original *model.SyncObject) (io.ReadCloser, error) {
	directive, err := a.Directive(ctx, original.RelativePath())
	if err != nil {
		return nil, err
	}
	return a.openPayload(ctx, original.RelativePath(), directive)
}

func (a *Archive) openPayload(ctx context.Context, id string, directive *Directive) (io.ReadCloser, error) {
	h, ok := directive.PayloadHash()
	if !ok {
		return nil, fmt.Errorf("clip %s has no payload", id)
	}

	data, err := a.Get(ctx, h)
	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}
