// Package extractor restores file paths and POSIX metadata for objects that
// were archived without them.
//
// Each source object is paired with one line of a list file describing the
// original file: its relative path, owner, group, mode bits, times and, for
// symlinks, the link target. The Extractor parses that line, applies the
// metadata to the object, derives a new object at the original path and
// forwards it down the filter chain. Content is fetched from the source
// lazily, only when a downstream stage reads it.
package extractor

import (
	"context"
	"fmt"
	"io"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/filter"
	"github.com/marmos91/dittosync/pkg/model"
	"github.com/marmos91/dittosync/pkg/storage"
	"github.com/marmos91/dittosync/pkg/timefmt"
)

// DataStreamer opens the content of a source object on demand.
//
// Implementations are bound to a concrete source: the CAS archive reads the
// clip payload, a content store reads the blob named by the object.
type DataStreamer interface {
	DataStream(ctx context.Context, original *model.SyncObject) (io.ReadCloser, error)
}

// DataStreamerFunc adapts a function to DataStreamer.
type DataStreamerFunc func(ctx context.Context, original *model.SyncObject) (io.ReadCloser, error)

func (f DataStreamerFunc) DataStream(ctx context.Context, original *model.SyncObject) (io.ReadCloser, error) {
	return f(ctx, original)
}

// Config controls how strictly list file records are interpreted.
type Config struct {
	// FileMetadataRequired makes records without ownership and mode fields
	// an error instead of a warning.
	FileMetadataRequired bool `mapstructure:"file_metadata_required" yaml:"file_metadata_required"`
}

// Extractor is the filter that turns archived objects back into files.
type Extractor struct {
	filter.Base

	config   Config
	streamer DataStreamer
}

// New creates an Extractor that opens content through streamer.
func New(config Config, streamer DataStreamer) *Extractor {
	return &Extractor{config: config, streamer: streamer}
}

// Configure wires the extractor into a chain. A source that can attach
// per-object list file rows is told to do so.
func (e *Extractor) Configure(source storage.SyncStorage, next filter.SyncFilter, target storage.Target) error {
	if e.streamer == nil {
		return fmt.Errorf("extractor: no data streamer")
	}

	if err := e.Base.Configure(source, next, target); err != nil {
		return err
	}

	if aware, ok := source.(storage.DirectiveAware); ok {
		aware.SetDirectivesExpected(true)
		logger.Debug("Extractor: source %s will attach list file rows", source.Name())
	}

	return nil
}

// Filter applies the object's list file record and forwards the derived
// object to the next stage.
//
// Procedure:
//  1. Parse the list file row attached to the source summary
//  2. Apply ownership, mode, symlink target and times to the metadata
//  3. Derive an object at the recorded path, sharing metadata and source
//  4. Replace its ACL and install a lazy content accessor
//  5. Put the derived object in the context and call the next stage
//
// On error the context still holds the original object and nothing is
// forwarded. Metadata changes made before the failure stay on the original.
func (e *Extractor) Filter(ctx context.Context, oc *model.ObjectContext) error {
	if e.Next() == nil {
		return filter.ErrNotConfigured
	}

	original := oc.Object
	id := oc.SourceSummary.Identifier

	// ========================================================================
	// Step 1: Parse the record
	// ========================================================================

	row, ok := oc.SourceSummary.ListFileRow()
	if !ok {
		return &ObjectError{Identifier: id, Err: ErrMissingSidecarData}
	}

	record, err := ParseRecord(row)
	if err != nil {
		return &ObjectError{Identifier: id, Err: err}
	}

	path, ok := record.Field(FieldRelativePath)
	if !ok {
		return &ObjectError{Identifier: id, Err: ErrMissingPath}
	}

	// ========================================================================
	// Step 2: Apply file metadata
	// ========================================================================

	metadata := original.Metadata()
	var (
		acl     *model.ObjectAcl
		symlink bool
	)

	switch {
	case record.Len() < minMetadataFields:
		if e.config.FileMetadataRequired {
			return &ObjectError{Identifier: id, Err: ErrMissingFileMetadata}
		}
		logger.Warn("File metadata not found for %s", id)

	case record[FieldType] == TypeNFS:
		acl, symlink, err = applyNFSMetadata(oc.Formats, id, record, metadata)
		if err != nil {
			return &ObjectError{Identifier: id, Err: err}
		}
	}

	// ========================================================================
	// Step 3: Derive the object at its original path
	// ========================================================================

	derived := original.Derive(path)
	if acl != nil {
		derived.SetAcl(acl)
	}

	if !metadata.Directory && !symlink {
		derived.SetLazyStream(func() (io.ReadCloser, error) {
			stream, err := e.streamer.DataStream(ctx, original)
			if err != nil {
				return nil, fmt.Errorf("retrieve content for %s: %w", id, err)
			}
			return stream, nil
		})
	}

	oc.Object = derived

	return e.Next().Filter(ctx, oc)
}

// ReverseFilter forwards verification unchanged.
func (e *Extractor) ReverseFilter(ctx context.Context, oc *model.ObjectContext) (*model.SyncObject, error) {
	if e.Next() == nil {
		return nil, filter.ErrNotConfigured
	}
	return e.Next().ReverseFilter(ctx, oc)
}

// applyNFSMetadata writes the NFS fields of record into metadata and returns
// the ACL decoded from the mode bits.
func applyNFSMetadata(formats *timefmt.Cache, id string, record Record, metadata *model.ObjectMetadata) (*model.ObjectAcl, bool, error) {
	owner := "uid:" + record[FieldUID]
	group := "gid:" + record[FieldGID]
	mode := record[FieldMode]

	perms, err := NormalizePermissions(mode)
	if err != nil {
		return nil, false, err
	}

	symlink := IsSymlinkMode(mode)
	if symlink {
		target, ok := record.Field(FieldLinkTarget)
		if !ok {
			return nil, false, ErrMissingLinkTarget
		}
		metadata.ContentType = model.TypeLink
		metadata.SetUserMetadataValue(model.MetaLinkTarget, target)
	}

	if formats == nil {
		formats = timefmt.NewCache(1)
	}

	times := make([]*string, 0, 3)
	for _, field := range []struct {
		index int
		name  string
	}{
		{FieldMtime, "mtime"},
		{FieldCtime, "ctime"},
		{FieldAtime, "atime"},
	} {
		value := record.OptionalField(field.index)
		if value == nil {
			logger.Info("%s not found for %s", field.name, id)
		}
		times = append(times, value)
	}

	mtime, err := ParseTimestamp(formats, times[0])
	if err != nil {
		return nil, false, err
	}
	ctime, err := ParseTimestamp(formats, times[1])
	if err != nil {
		return nil, false, err
	}
	// atime is validated but not applied.
	if _, err := ParseTimestamp(formats, times[2]); err != nil {
		return nil, false, err
	}

	logger.Debug("Extractor: %s owner=%s group=%s mode=%s mtime=%v ctime=%v",
		id, owner, group, perms, mtime, ctime)

	metadata.ModificationTime = mtime
	metadata.MetaChangeTime = ctime

	acl, err := DecodePermissions(perms, owner, group)
	if err != nil {
		return nil, false, err
	}

	return acl, symlink, nil
}
