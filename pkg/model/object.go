package model

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/marmos91/dittosync/pkg/lazy"
)

// Source identifies the storage an object was read from.
type Source interface {
	Name() string
}

// SyncObject is the unit that flows through the filter chain.
//
// Content is available either through an eager stream or through a lazy
// accessor, never both. Metadata and ACL are held by pointer: an object
// derived with Derive shares them with its original until SetAcl installs a
// new ACL.
type SyncObject struct {
	source       Source
	relativePath string
	metadata     *ObjectMetadata
	acl          *ObjectAcl

	dataStream     io.ReadCloser
	lazyStream     *lazy.Value[io.ReadCloser]
	borrowedStream bool

	// parent is released before this object's own resources.
	parent  *SyncObject
	release func() error

	closeOnce sync.Once
	closeErr  error
}

// NewSyncObject creates an object. A nil metadata or acl is replaced by an
// empty one.
func NewSyncObject(source Source, relativePath string, metadata *ObjectMetadata, dataStream io.ReadCloser, acl *ObjectAcl) *SyncObject {
	if metadata == nil {
		metadata = NewObjectMetadata()
	}
	if acl == nil {
		acl = &ObjectAcl{}
	}
	return &SyncObject{
		source:       source,
		relativePath: relativePath,
		metadata:     metadata,
		dataStream:   dataStream,
		acl:          acl,
	}
}

// Derive returns a new object at relativePath that shares source, metadata,
// ACL and the eager stream of o. Closing the derived object closes o first.
// The borrowed stream stays owned by o.
func (o *SyncObject) Derive(relativePath string) *SyncObject {
	return &SyncObject{
		source:         o.source,
		relativePath:   relativePath,
		metadata:       o.metadata,
		acl:            o.acl,
		dataStream:     o.dataStream,
		borrowedStream: o.dataStream != nil,
		parent:         o,
	}
}

// Source returns the storage the object was read from.
func (o *SyncObject) Source() Source { return o.source }

// RelativePath returns the object's path relative to the storage root.
func (o *SyncObject) RelativePath() string { return o.relativePath }

// Metadata returns the metadata, shared with the original of a derived object.
func (o *SyncObject) Metadata() *ObjectMetadata { return o.metadata }

// Acl returns the ACL, shared with the original until SetAcl is called.
func (o *SyncObject) Acl() *ObjectAcl { return o.acl }

// Parent returns the object this one was derived from, or nil.
func (o *SyncObject) Parent() *SyncObject { return o.parent }

// HasLazyStream reports whether content is opened on first read.
func (o *SyncObject) HasLazyStream() bool { return o.lazyStream != nil }

// SetAcl replaces the ACL pointer of this object only. The original of a
// derived object keeps the ACL it had.
func (o *SyncObject) SetAcl(acl *ObjectAcl) { o.acl = acl }

// SetRelease installs the backend cleanup run by Close after the parent and
// the streams are released. A previous release function is replaced, not
// chained.
func (o *SyncObject) SetRelease(release func() error) { o.release = release }

// SetDataStream installs an eager stream and removes any lazy accessor.
// Passing nil drops the current stream without closing it.
func (o *SyncObject) SetDataStream(stream io.ReadCloser) {
	o.dataStream = stream
	o.borrowedStream = false
	o.lazyStream = nil
}

// SetLazyStream installs an accessor that opens the content on first read.
// Any eager stream is dropped; a stream borrowed from the parent stays with
// the parent.
func (o *SyncObject) SetLazyStream(open func() (io.ReadCloser, error)) {
	o.dataStream = nil
	o.borrowedStream = false
	o.lazyStream = lazy.New(open)
}

// DataStream returns the object's content. With a lazy accessor the content
// is opened on the first call and the same stream is returned afterwards;
// errors from the backend surface here.
func (o *SyncObject) DataStream() (io.Reader, error) {
	if o.lazyStream != nil {
		return o.lazyStream.Get()
	}
	if o.dataStream == nil {
		return nil, fmt.Errorf("object %s has no data stream", o.relativePath)
	}
	return o.dataStream, nil
}

// Close releases the object exactly once. The parent, if any, is released
// first and is released even when this object's own cleanup fails. Errors
// from every step are joined.
func (o *SyncObject) Close() error {
	o.closeOnce.Do(func() {
		var errs []error

		if o.parent != nil {
			if err := o.parent.Close(); err != nil {
				errs = append(errs, fmt.Errorf("release original: %w", err))
			}
		}

		if o.lazyStream != nil {
			if stream, err, ok := o.lazyStream.Peek(); ok && err == nil && stream != nil {
				errs = append(errs, stream.Close())
			}
		}

		if o.dataStream != nil && !o.borrowedStream {
			errs = append(errs, o.dataStream.Close())
		}

		if o.release != nil {
			errs = append(errs, o.release())
		}

		o.closeErr = errors.Join(errs...)
	})
	return o.closeErr
}
