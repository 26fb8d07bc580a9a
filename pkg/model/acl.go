package model

import "fmt"

// Permission is a single right granted to a principal.
type Permission string

const (
	PermissionRead    Permission = "READ"
	PermissionWrite   Permission = "WRITE"
	PermissionExecute Permission = "EXECUTE"
)

// OtherGroup is the well-known group principal standing for "everyone else"
// in POSIX permission bits.
const OtherGroup = "other"

// Grant pairs a principal with a permission.
type Grant struct {
	Principal  string
	Permission Permission
}

func (g Grant) String() string {
	return fmt.Sprintf("%s:%s", g.Principal, g.Permission)
}

// ObjectAcl is the pipeline's access-control model: an owner and ordered
// user and group grants. Grants are kept in insertion order and duplicates
// are dropped.
type ObjectAcl struct {
	Owner string

	userGrants  []Grant
	groupGrants []Grant
}

// NewObjectAcl returns an empty ACL owned by owner.
func NewObjectAcl(owner string) *ObjectAcl {
	return &ObjectAcl{Owner: owner}
}

// AddUserGrant grants permission to the user principal.
func (a *ObjectAcl) AddUserGrant(principal string, permission Permission) {
	a.userGrants = appendGrant(a.userGrants, Grant{Principal: principal, Permission: permission})
}

// AddGroupGrant grants permission to the group principal.
func (a *ObjectAcl) AddGroupGrant(principal string, permission Permission) {
	a.groupGrants = appendGrant(a.groupGrants, Grant{Principal: principal, Permission: permission})
}

// UserGrants returns a copy of the user grants.
func (a *ObjectAcl) UserGrants() []Grant {
	return append([]Grant(nil), a.userGrants...)
}

// GroupGrants returns a copy of the group grants.
func (a *ObjectAcl) GroupGrants() []Grant {
	return append([]Grant(nil), a.groupGrants...)
}

// HasUserGrant reports whether principal holds permission as a user grant.
func (a *ObjectAcl) HasUserGrant(principal string, permission Permission) bool {
	return containsGrant(a.userGrants, Grant{Principal: principal, Permission: permission})
}

// HasGroupGrant reports whether principal holds permission as a group grant.
func (a *ObjectAcl) HasGroupGrant(principal string, permission Permission) bool {
	return containsGrant(a.groupGrants, Grant{Principal: principal, Permission: permission})
}

func appendGrant(grants []Grant, g Grant) []Grant {
	if containsGrant(grants, g) {
		return grants
	}
	return append(grants, g)
}

func containsGrant(grants []Grant, g Grant) bool {
	for _, existing := range grants {
		if existing == g {
			return true
		}
	}
	return false
}
