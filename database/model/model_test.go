package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleSuperAdmin.IsGranted(RoleAdmin))
	assert.True(t, RoleAdmin.IsGranted(RoleAdmin))
	assert.False(t, RoleEditor.IsGranted(RoleAdmin))
	assert.False(t, RoleNone.IsGranted(RoleUser))
	assert.False(t, Role("ROLE_GUEST").IsGranted(RoleUser))
	assert.True(t, RoleNone.IsGranted(RoleNone))
}

func TestRoleRank(t *testing.T) {
	for i, role := range Roles {
		assert.Equal(t, i+1, role.Rank())
		assert.True(t, role.IsValid())
	}
	assert.Equal(t, 0, RoleNone.Rank())
	assert.Equal(t, "Super Admin", RoleSuperAdmin.Label())
	assert.Equal(t, "ROLE_X", Role("ROLE_X").Label())
}

func TestFileVisibility(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	editor := &User{Role: RoleEditor}
	member := &User{Role: RoleUser}

	public := &File{IsPublished: true}
	assert.True(t, public.VisibleTo(nil))

	draft := &File{IsPublished: false}
	assert.False(t, draft.VisibleTo(member))
	assert.True(t, draft.VisibleTo(admin))

	private := &File{IsPublished: true, Private: true}
	assert.False(t, private.VisibleTo(editor))
	assert.True(t, private.VisibleTo(admin))

	editorsOnly := &File{IsPublished: true, RoleAccess: RoleEditor}
	assert.False(t, editorsOnly.VisibleTo(nil))
	assert.False(t, editorsOnly.VisibleTo(member))
	assert.True(t, editorsOnly.VisibleTo(editor))
}
