package catalog

import (
	"time"

	"github.com/marmos91/dittosync/pkg/filter/extractor"
	"github.com/marmos91/dittosync/pkg/model"
)

// EntryType classifies a catalog entry.
type EntryType uint32

const (
	EntryRegular EntryType = iota
	EntryDirectory
	EntrySymlink
)

func (t EntryType) String() string {
	switch t {
	case EntryRegular:
		return "file"
	case EntryDirectory:
		return "directory"
	case EntrySymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Timestamp is an optional point in time in XDR-friendly form.
type Timestamp struct {
	Set     bool
	Seconds int64
	Nanos   uint32
}

func timestampOf(t *time.Time) Timestamp {
	if t == nil {
		return Timestamp{}
	}
	return Timestamp{Set: true, Seconds: t.Unix(), Nanos: uint32(t.Nanosecond())}
}

// Time returns the timestamp in UTC, or nil when unset.
func (ts Timestamp) Time() *time.Time {
	if !ts.Set {
		return nil
	}
	t := time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
	return &t
}

// Entry is one manifest record. Field order is the wire order.
type Entry struct {
	Path        string
	Type        EntryType
	Size        uint64
	Owner       string
	Group       string
	Mode        string
	ContentType string
	LinkTarget  string
	Mtime       Timestamp
	Ctime       Timestamp
}

// EntryFromObject describes obj without touching its content.
func EntryFromObject(obj *model.SyncObject) Entry {
	md := obj.Metadata()
	acl := obj.Acl()

	entry := Entry{
		Path:        obj.RelativePath(),
		Size:        md.ContentLength,
		Owner:       acl.Owner,
		Group:       owningGroup(acl),
		ContentType: md.ContentType,
		Mtime:       timestampOf(md.ModificationTime),
		Ctime:       timestampOf(md.MetaChangeTime),
	}
	entry.Mode = extractor.EncodePermissions(acl, entry.Group)

	switch {
	case md.Directory:
		entry.Type = EntryDirectory
	case md.IsLink():
		entry.Type = EntrySymlink
		entry.LinkTarget, _ = md.UserMetadataValue(model.MetaLinkTarget)
	default:
		entry.Type = EntryRegular
	}

	return entry
}

// owningGroup returns the first group principal other than the "other"
// group. Objects whose group triad is empty have none.
func owningGroup(acl *model.ObjectAcl) string {
	for _, grant := range acl.GroupGrants() {
		if grant.Principal != model.OtherGroup {
			return grant.Principal
		}
	}
	return ""
}

// Object rebuilds a content-less SyncObject from the entry.
func (e Entry) Object(source model.Source) (*model.SyncObject, error) {
	md := model.NewObjectMetadata()
	md.ContentLength = e.Size
	md.ContentType = e.ContentType
	md.Directory = e.Type == EntryDirectory
	md.ModificationTime = e.Mtime.Time()
	md.MetaChangeTime = e.Ctime.Time()
	if e.Type == EntrySymlink {
		md.SetUserMetadataValue(model.MetaLinkTarget, e.LinkTarget)
	}

	var acl *model.ObjectAcl
	if e.Mode != "" {
		var err error
		acl, err = extractor.DecodePermissions(e.Mode, e.Owner, e.Group)
		if err != nil {
			return nil, err
		}
	} else {
		acl = model.NewObjectAcl(e.Owner)
	}

	return model.NewSyncObject(source, e.Path, md, nil, acl), nil
}
