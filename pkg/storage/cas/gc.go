package cas

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/storage"
)

// DeleteClip removes clip id. Its payload blob stays until the archive is
// collected.
func (a *Archive) DeleteClip(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return a.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(keyClip(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("clip %s: %w", id, storage.ErrObjectNotFound)
			}
			return err
		}
		return txn.Delete(keyClip(id))
	})
}

// ReferencedBlobs returns the payload address of every clip.
func (a *Archive) ReferencedBlobs(ctx context.Context) ([]Hash, error) {
	seen := make(map[Hash]struct{})
	var referenced []Hash

	err := a.iterate(ctx, prefixClip, true, func(key, val []byte) error {
		directive, err := decodeDirective(val)
		if err != nil {
			return fmt.Errorf("clip %s: %w", bytes.TrimPrefix(key, []byte(prefixClip)), err)
		}
		h, ok := directive.PayloadHash()
		if !ok {
			return nil
		}
		if _, dup := seen[h]; !dup {
			seen[h] = struct{}{}
			referenced = append(referenced, h)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return referenced, nil
}

// ListBlobs returns the address of every stored blob.
func (a *Archive) ListBlobs(ctx context.Context) ([]Hash, error) {
	var blobs []Hash

	err := a.iterate(ctx, prefixBlob, false, func(key, _ []byte) error {
		h, err := ParseHash(string(bytes.TrimPrefix(key, []byte(prefixBlob))))
		if err != nil {
			logger.Warn("cas: skipping blob key %q: %v", key, err)
			return nil
		}
		blobs = append(blobs, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return blobs, nil
}

// DeleteBlobs removes the given blobs in one transaction. Blobs that are
// already gone are not reported as failures.
//
// Returns:
//   - map[Hash]error: Per-blob failures (empty if all succeeded)
//   - error: Transaction-level error; no blob was deleted
func (a *Archive) DeleteBlobs(ctx context.Context, hashes []Hash) (map[Hash]error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failures := make(map[Hash]error)
	err := a.db.Update(func(txn *badger.Txn) error {
		for _, h := range hashes {
			if err := txn.Delete(keyBlob(h)); err != nil {
				if errors.Is(err, badger.ErrTxnTooBig) {
					return err
				}
				failures[h] = err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete %d blobs: %w", len(hashes), err)
	}
	return failures, nil
}

// iterate calls fn for every key under prefix. Values are only fetched when
// withValues is set.
func (a *Archive) iterate(ctx context.Context, prefix string, withValues bool, fn func(key, val []byte) error) error {
	return a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = withValues
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			key := item.KeyCopy(nil)
			if !withValues {
				if err := fn(key, nil); err != nil {
					return err
				}
				continue
			}

			err := item.Value(func(val []byte) error {
				return fn(key, val)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
