package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectAcl_GrantsKeepOrderAndDedupe(t *testing.T) {
	acl := NewObjectAcl("uid:10")
	acl.AddUserGrant("uid:10", PermissionRead)
	acl.AddUserGrant("uid:10", PermissionWrite)
	acl.AddUserGrant("uid:10", PermissionRead)
	acl.AddGroupGrant("gid:20", PermissionExecute)

	assert.Equal(t, []Grant{
		{Principal: "uid:10", Permission: PermissionRead},
		{Principal: "uid:10", Permission: PermissionWrite},
	}, acl.UserGrants())
	assert.True(t, acl.HasGroupGrant("gid:20", PermissionExecute))
	assert.False(t, acl.HasUserGrant("gid:20", PermissionExecute))
}

func TestObjectAcl_GrantsAreCopies(t *testing.T) {
	acl := NewObjectAcl("uid:1")
	acl.AddGroupGrant(OtherGroup, PermissionRead)

	grants := acl.GroupGrants()
	grants[0].Permission = PermissionWrite

	assert.True(t, acl.HasGroupGrant(OtherGroup, PermissionRead))
}

func TestObjectSummary_ListFileRow(t *testing.T) {
	summary := NewObjectSummary("clip-1", false, 10)
	_, ok := summary.ListFileRow()
	assert.False(t, ok)

	summary.SetListFileRow("clip-1,a.txt")
	row, ok := summary.ListFileRow()
	assert.True(t, ok)
	assert.Equal(t, "clip-1,a.txt", row)
}

func TestObjectMetadata_UserMetadata(t *testing.T) {
	var md ObjectMetadata
	md.SetUserMetadataValue(MetaLinkTarget, "../target")
	md.ContentType = TypeLink

	value, ok := md.UserMetadataValue(MetaLinkTarget)
	assert.True(t, ok)
	assert.Equal(t, "../target", value)
	assert.True(t, md.IsLink())

	copied := md.UserMetadata()
	copied[MetaLinkTarget] = "changed"
	value, _ = md.UserMetadataValue(MetaLinkTarget)
	assert.Equal(t, "../target", value)
}
