// Package contenttarget writes extracted file content into a content store,
// keyed by the object's relative path.
package contenttarget

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/content"
	"github.com/marmos91/dittosync/pkg/model"
	"github.com/marmos91/dittosync/pkg/storage"
)

// Target is a storage.VerifiableTarget over a WritableContentStore.
//
// Regular files are copied. Directories and symlinks have no content; they
// are logged and counted as skipped. The store only keeps bytes, so the
// modification time, ACL and kind of every object handed to the target are
// remembered for the rest of the run and reported by LoadObject.
type Target struct {
	name  string
	store content.WritableContentStore

	mu      sync.Mutex
	records map[string]record

	written atomic.Int64
	skipped atomic.Int64
}

// record is what LoadObject reports beyond the stored bytes.
type record struct {
	mtime      *time.Time
	acl        *model.ObjectAcl
	directory  bool
	link       bool
	linkTarget string
}

// New returns a target named name writing into store.
func New(name string, store content.WritableContentStore) *Target {
	return &Target{name: name, store: store, records: make(map[string]record)}
}

func (t *Target) Name() string   { return t.name }
func (t *Target) Written() int64 { return t.written.Load() }
func (t *Target) Skipped() int64 { return t.skipped.Load() }

// UpdateObject copies the content of a regular file object into the store.
// Reading the object triggers any lazy content retrieval.
func (t *Target) UpdateObject(ctx context.Context, obj *model.SyncObject) error {
	md := obj.Metadata()
	rec := recordOf(obj)

	switch {
	case md.Directory:
		logger.Info("%s: directory %s has no content", t.name, obj.RelativePath())
		t.remember(obj.RelativePath(), rec)
		t.skipped.Add(1)
		return nil

	case md.IsLink():
		logger.Info("%s: symlink %s -> %s has no content", t.name, obj.RelativePath(), rec.linkTarget)
		t.remember(obj.RelativePath(), rec)
		t.skipped.Add(1)
		return nil
	}

	stream, err := obj.DataStream()
	if err != nil {
		return err
	}

	data, err := io.ReadAll(stream)
	if err != nil {
		return fmt.Errorf("read %s: %w", obj.RelativePath(), err)
	}

	if err := t.store.WriteContent(ctx, content.ContentID(obj.RelativePath()), data); err != nil {
		return fmt.Errorf("write %s: %w", obj.RelativePath(), err)
	}

	t.remember(obj.RelativePath(), rec)
	t.written.Add(1)
	logger.Debug("%s: wrote %s (%d bytes)", t.name, obj.RelativePath(), len(data))
	return nil
}

// recordOf copies the attributes of obj that the store cannot hold.
func recordOf(obj *model.SyncObject) record {
	md := obj.Metadata()
	rec := record{
		directory: md.Directory,
		link:      md.IsLink(),
		acl:       copyAcl(obj.Acl()),
	}
	if md.ModificationTime != nil {
		mtime := *md.ModificationTime
		rec.mtime = &mtime
	}
	if rec.link {
		rec.linkTarget, _ = md.UserMetadataValue(model.MetaLinkTarget)
	}
	return rec
}

func copyAcl(acl *model.ObjectAcl) *model.ObjectAcl {
	if acl == nil {
		return nil
	}
	c := model.NewObjectAcl(acl.Owner)
	for _, g := range acl.UserGrants() {
		c.AddUserGrant(g.Principal, g.Permission)
	}
	for _, g := range acl.GroupGrants() {
		c.AddGroupGrant(g.Principal, g.Permission)
	}
	return c
}

func (t *Target) remember(relativePath string, rec record) {
	t.mu.Lock()
	t.records[relativePath] = rec
	t.mu.Unlock()
}

// LoadObject opens the stored content for relativePath. Objects written
// during this run also carry their modification time and ACL; directories
// and symlinks are only known from this run.
func (t *Target) LoadObject(ctx context.Context, relativePath string) (*model.SyncObject, error) {
	t.mu.Lock()
	rec, known := t.records[relativePath]
	t.mu.Unlock()

	md := model.NewObjectMetadata()
	md.ModificationTime = rec.mtime

	if known && (rec.directory || rec.link) {
		md.Directory = rec.directory
		if rec.link {
			md.ContentType = model.TypeLink
			md.SetUserMetadataValue(model.MetaLinkTarget, rec.linkTarget)
		}
		return model.NewSyncObject(t, relativePath, md, nil, copyAcl(rec.acl)), nil
	}

	id := content.ContentID(relativePath)

	size, err := t.store.GetContentSize(ctx, id)
	if err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return nil, fmt.Errorf("%s: %w", relativePath, storage.ErrObjectNotFound)
		}
		return nil, err
	}

	md.ContentLength = size

	obj := model.NewSyncObject(t, relativePath, md, nil, copyAcl(rec.acl))
	obj.SetLazyStream(func() (io.ReadCloser, error) {
		return t.store.ReadContent(ctx, id)
	})
	return obj, nil
}

// Close closes the store when it holds resources.
func (t *Target) Close() error {
	if closer, ok := t.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
