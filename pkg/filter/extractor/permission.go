package extractor

import (
	"fmt"
	"strings"

	"github.com/marmos91/dittosync/pkg/model"
)

// permissionLength is the length of the owner/group/other part of a mode
// string such as "rwxr-x---".
const permissionLength = 9

// PermissionFromChar maps one mode character to a permission.
func PermissionFromChar(c byte) (model.Permission, error) {
	switch c {
	case 'r':
		return model.PermissionRead, nil
	case 'w':
		return model.PermissionWrite, nil
	case 'x':
		return model.PermissionExecute, nil
	default:
		return "", &PermissionCharError{Char: c}
	}
}

// IsSymlinkMode reports whether a mode string, as listed by ls, describes a
// symbolic link. Only the type character is inspected.
func IsSymlinkMode(mode string) bool {
	return strings.HasPrefix(mode, "l")
}

// NormalizePermissions keeps the last nine characters of mode, dropping any
// leading type or special bits. Shorter strings are rejected.
func NormalizePermissions(mode string) (string, error) {
	if len(mode) < permissionLength {
		return "", fmt.Errorf("%w: permission string %q is shorter than %d characters",
			ErrMalformedRecord, mode, permissionLength)
	}
	return mode[len(mode)-permissionLength:], nil
}

// DecodePermissions builds an ACL from a nine character permission string.
// The owner triad becomes user grants for owner, the group triad group grants
// for group and the other triad group grants for model.OtherGroup.
func DecodePermissions(perms, owner, group string) (*model.ObjectAcl, error) {
	if len(perms) != permissionLength {
		return nil, fmt.Errorf("%w: permission string %q must be %d characters",
			ErrMalformedRecord, perms, permissionLength)
	}

	acl := model.NewObjectAcl(owner)

	for i := 0; i < permissionLength; i++ {
		c := perms[i]
		if c == '-' {
			continue
		}

		permission, err := PermissionFromChar(c)
		if err != nil {
			return nil, err
		}

		switch i / 3 {
		case 0:
			acl.AddUserGrant(owner, permission)
		case 1:
			acl.AddGroupGrant(group, permission)
		default:
			acl.AddGroupGrant(model.OtherGroup, permission)
		}
	}

	return acl, nil
}

// EncodePermissions renders the grants of acl back into a nine character
// permission string, using acl.Owner as the owner principal and group as the
// owning group.
func EncodePermissions(acl *model.ObjectAcl, group string) string {
	triad := func(has func(model.Permission) bool) string {
		var b strings.Builder
		for _, p := range []struct {
			perm model.Permission
			char byte
		}{
			{model.PermissionRead, 'r'},
			{model.PermissionWrite, 'w'},
			{model.PermissionExecute, 'x'},
		} {
			if has(p.perm) {
				b.WriteByte(p.char)
			} else {
				b.WriteByte('-')
			}
		}
		return b.String()
	}

	return triad(func(p model.Permission) bool { return acl.HasUserGrant(acl.Owner, p) }) +
		triad(func(p model.Permission) bool { return acl.HasGroupGrant(group, p) }) +
		triad(func(p model.Permission) bool { return acl.HasGroupGrant(model.OtherGroup, p) })
}
