package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/marmos91/dittosync/pkg/model"
)

// ErrVerifyMismatch is returned when the object read back from the target
// differs from the object that was written.
var ErrVerifyMismatch = errors.New("verification mismatch")

// MismatchError lists the fields that differ after a verification read.
type MismatchError struct {
	Path   string
	Fields []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s differs on target", e.Path, strings.Join(e.Fields, ", "))
}

func (e *MismatchError) Unwrap() error { return ErrVerifyMismatch }

// compareObjects checks the relative path, modification time and ACL of the
// stored object against the written one.
func compareObjects(written, stored *model.SyncObject) error {
	var fields []string

	if written.RelativePath() != stored.RelativePath() {
		fields = append(fields, "path")
	}
	if !sameTime(written.Metadata().ModificationTime, stored.Metadata().ModificationTime) {
		fields = append(fields, "mtime")
	}
	if !sameAcl(written.Acl(), stored.Acl()) {
		fields = append(fields, "acl")
	}

	if len(fields) == 0 {
		return nil
	}
	return &MismatchError{Path: written.RelativePath(), Fields: fields}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func sameAcl(a, b *model.ObjectAcl) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Owner == b.Owner &&
		slices.Equal(a.UserGrants(), b.UserGrants()) &&
		slices.Equal(a.GroupGrants(), b.GroupGrants())
}
