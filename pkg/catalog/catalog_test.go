package catalog

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/dittosync/pkg/model"
	"github.com/marmos91/dittosync/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSource struct{}

func (testSource) Name() string { return "test" }

func regularObject(t *testing.T, opened *int) *model.SyncObject {
	t.Helper()

	mtime := time.Date(2020, time.January, 1, 10, 30, 0, 0, time.UTC)
	md := model.NewObjectMetadata()
	md.ContentLength = 42
	md.ModificationTime = &mtime

	acl := model.NewObjectAcl("uid:1000")
	acl.AddUserGrant("uid:1000", model.PermissionRead)
	acl.AddUserGrant("uid:1000", model.PermissionWrite)
	acl.AddGroupGrant("gid:100", model.PermissionRead)
	acl.AddGroupGrant(model.OtherGroup, model.PermissionRead)

	obj := model.NewSyncObject(testSource{}, "docs/readme.txt", md, nil, acl)
	obj.SetLazyStream(func() (io.ReadCloser, error) {
		*opened++
		return io.NopCloser(bytes.NewReader(nil)), nil
	})
	return obj
}

func symlinkObject() *model.SyncObject {
	md := model.NewObjectMetadata()
	md.ContentType = model.TypeLink
	md.SetUserMetadataValue(model.MetaLinkTarget, "libfoo.so.1")

	acl := model.NewObjectAcl("uid:0")
	for _, p := range []model.Permission{model.PermissionRead, model.PermissionWrite, model.PermissionExecute} {
		acl.AddUserGrant("uid:0", p)
		acl.AddGroupGrant("gid:0", p)
		acl.AddGroupGrant(model.OtherGroup, p)
	}

	return model.NewSyncObject(testSource{}, "lib/libfoo.so", md, nil, acl)
}

func TestCatalog_WriteAndRead(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	cat := NewWriter(&buf)

	opened := 0
	require.NoError(t, cat.UpdateObject(ctx, regularObject(t, &opened)))
	require.NoError(t, cat.UpdateObject(ctx, symlinkObject()))
	require.NoError(t, cat.Close())

	assert.Equal(t, 0, opened, "catalog must not read content")
	assert.Equal(t, 2, cat.Written())

	entries, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	regular := entries[0]
	assert.Equal(t, "docs/readme.txt", regular.Path)
	assert.Equal(t, EntryRegular, regular.Type)
	assert.Equal(t, uint64(42), regular.Size)
	assert.Equal(t, "uid:1000", regular.Owner)
	assert.Equal(t, "gid:100", regular.Group)
	assert.Equal(t, "rw-r--r--", regular.Mode)
	require.NotNil(t, regular.Mtime.Time())
	assert.True(t, regular.Mtime.Time().Equal(time.Date(2020, time.January, 1, 10, 30, 0, 0, time.UTC)))
	assert.Nil(t, regular.Ctime.Time())

	link := entries[1]
	assert.Equal(t, EntrySymlink, link.Type)
	assert.Equal(t, "libfoo.so.1", link.LinkTarget)
	assert.Equal(t, "rwxrwxrwx", link.Mode)
	assert.Equal(t, model.TypeLink, link.ContentType)
}

func TestCatalog_LoadObject(t *testing.T) {
	ctx := context.Background()
	cat := NewWriter(io.Discard)
	defer cat.Close()

	opened := 0
	require.NoError(t, cat.UpdateObject(ctx, regularObject(t, &opened)))

	obj, err := cat.LoadObject(ctx, "docs/readme.txt")
	require.NoError(t, err)

	assert.Equal(t, "catalog", obj.Source().Name())
	assert.Equal(t, uint64(42), obj.Metadata().ContentLength)
	assert.True(t, obj.Acl().HasUserGrant("uid:1000", model.PermissionWrite))
	assert.True(t, obj.Acl().HasGroupGrant("gid:100", model.PermissionRead))
	assert.False(t, obj.Acl().HasGroupGrant("gid:100", model.PermissionWrite))

	_, err = cat.LoadObject(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestCatalog_Directory(t *testing.T) {
	md := model.NewObjectMetadata()
	md.Directory = true
	obj := model.NewSyncObject(testSource{}, "docs", md, nil, model.NewObjectAcl("uid:0"))

	entry := EntryFromObject(obj)

	assert.Equal(t, EntryDirectory, entry.Type)
	assert.Equal(t, "", entry.Group)
	assert.Equal(t, "---------", entry.Mode)
	assert.Equal(t, "directory", entry.Type.String())
}

func TestCatalog_CreateFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "manifest.xdr")

	cat, err := Create(Config{Path: path})
	require.NoError(t, err)

	require.NoError(t, cat.UpdateObject(ctx, symlinkObject()))
	require.NoError(t, cat.Close())
	require.NoError(t, cat.Close())

	require.Error(t, cat.UpdateObject(ctx, symlinkObject()))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	entries, err := ReadAll(file)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "lib/libfoo.so", entries[0].Path)
}

func TestCatalog_CreateRequiresPath(t *testing.T) {
	_, err := Create(Config{})
	require.Error(t, err)
}

func TestCatalog_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cat := NewWriter(io.Discard)
	require.ErrorIs(t, cat.UpdateObject(ctx, symlinkObject()), context.Canceled)
}

func TestReader_Corrupt(t *testing.T) {
	t.Run("TruncatedHeader", func(t *testing.T) {
		_, err := NewReader(bytes.NewReader([]byte{0x80, 0x00})).Next()
		require.ErrorIs(t, err, ErrCorruptManifest)
	})

	t.Run("MissingLastFragmentBit", func(t *testing.T) {
		frame := make([]byte, 4)
		binary.BigEndian.PutUint32(frame, 8)
		_, err := NewReader(bytes.NewReader(frame)).Next()
		require.ErrorIs(t, err, ErrCorruptManifest)
	})

	t.Run("TruncatedBody", func(t *testing.T) {
		frame := make([]byte, 4)
		binary.BigEndian.PutUint32(frame, lastFragment|64)
		_, err := NewReader(bytes.NewReader(append(frame, 1, 2, 3))).Next()
		require.ErrorIs(t, err, ErrCorruptManifest)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := NewReader(bytes.NewReader(nil)).Next()
		require.True(t, errors.Is(err, io.EOF))
	})
}
