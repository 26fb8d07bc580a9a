// Package contentsource reads container objects out of a content store.
//
// The identifier of each summary (the first list file field) is used as the
// ContentID of the container.
package contentsource

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/content"
	"github.com/marmos91/dittosync/pkg/model"
	"github.com/marmos91/dittosync/pkg/storage"
)

// Source is a SyncStorage over a content.ContentStore.
type Source struct {
	name  string
	store content.ContentStore
}

// New returns a source named name reading from store.
func New(name string, store content.ContentStore) *Source {
	return &Source{name: name, store: store}
}

func (s *Source) Name() string                { return s.name }
func (s *Source) Store() content.ContentStore { return s.store }

// LoadObject builds the container object for summary. Directories carry no
// content. For everything else the size is taken from the store and the
// content is opened on first read.
func (s *Source) LoadObject(ctx context.Context, summary *model.ObjectSummary) (*model.SyncObject, error) {
	id := content.ContentID(summary.Identifier)

	metadata := model.NewObjectMetadata()
	metadata.Directory = summary.Directory

	if summary.Directory {
		metadata.ContentType = model.TypeDirectory
		return model.NewSyncObject(s, summary.Identifier, metadata, nil, nil), nil
	}

	size, err := s.store.GetContentSize(ctx, id)
	if err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return nil, fmt.Errorf("%s: %w", summary.Identifier, storage.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("load %s: %w", summary.Identifier, err)
	}
	metadata.ContentLength = size

	object := model.NewSyncObject(s, summary.Identifier, metadata, nil, nil)
	object.SetLazyStream(func() (io.ReadCloser, error) {
		return s.store.ReadContent(ctx, id)
	})

	logger.Debug("contentsource: loaded %s (%d bytes)", summary.Identifier, size)
	return object, nil
}

// DataStream opens the container content of original.
func (s *Source) DataStream(ctx context.Context, original *model.SyncObject) (io.ReadCloser, error) {
	return s.store.ReadContent(ctx, content.ContentID(original.RelativePath()))
}

// Close closes the underlying store when it holds resources.
func (s *Source) Close() error {
	if closer, ok := s.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
