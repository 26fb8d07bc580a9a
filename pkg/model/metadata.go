package model

import "time"

// Reserved names shared by every stage that handles filesystem-style
// objects.
const (
	// TypeLink is the content type carried by objects that represent a
	// symbolic link rather than file data.
	TypeLink = "application/x-symlink"

	// MetaLinkTarget is the user metadata key holding a symlink's target.
	MetaLinkTarget = "x-emc-link-target"

	// TypeDirectory is the content type carried by directory objects.
	TypeDirectory = "application/x-directory"
)

// ObjectMetadata describes a SyncObject. It is mutated in place by filters
// and shared between an object and any object derived from it.
//
// Time fields are nil when the value is unknown.
type ObjectMetadata struct {
	ContentType      string
	ContentLength    uint64
	Directory        bool
	ModificationTime *time.Time
	MetaChangeTime   *time.Time
	AccessTime       *time.Time

	userMetadata map[string]string
}

// NewObjectMetadata returns empty metadata.
func NewObjectMetadata() *ObjectMetadata {
	return &ObjectMetadata{userMetadata: make(map[string]string)}
}

// SetUserMetadataValue sets key to value, replacing any previous value.
func (m *ObjectMetadata) SetUserMetadataValue(key, value string) {
	if m.userMetadata == nil {
		m.userMetadata = make(map[string]string)
	}
	m.userMetadata[key] = value
}

// UserMetadataValue returns the value stored under key.
func (m *ObjectMetadata) UserMetadataValue(key string) (string, bool) {
	value, ok := m.userMetadata[key]
	return value, ok
}

// UserMetadata returns a copy of the user metadata map.
func (m *ObjectMetadata) UserMetadata() map[string]string {
	out := make(map[string]string, len(m.userMetadata))
	for k, v := range m.userMetadata {
		out[k] = v
	}
	return out
}

// IsLink reports whether the metadata marks a symbolic link.
func (m *ObjectMetadata) IsLink() bool {
	return m.ContentType == TypeLink
}
