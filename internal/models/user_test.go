package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolePermissionOrderIsReflexive(t *testing.T) {
	for _, r := range []UserRole{RoleSuperUser, RoleAdmin, RoleTeacher, RoleStudent} {
		assert.True(t, r.HasPermissionOver(r), "role %s should have permission over itself", r)
	}
}

func TestRolePermissionOrderIsStrict(t *testing.T) {
	order := []UserRole{RoleSuperUser, RoleAdmin, RoleTeacher, RoleStudent}
	for i, higher := range order {
		for _, lower := range order[i+1:] {
			assert.True(t, higher.HasPermissionOver(lower), "%s over %s", higher, lower)
			assert.False(t, lower.HasPermissionOver(higher), "%s not over %s", lower, higher)
		}
	}
}

func TestRoleCapabilities(t *testing.T) {
	assert.ElementsMatch(t, []UserRole{RoleSuperUser, RoleAdmin, RoleTeacher, RoleStudent}, RoleSuperUser.Capabilities())
	assert.ElementsMatch(t, []UserRole{RoleAdmin, RoleStudent}, RoleAdmin.Capabilities())
	assert.ElementsMatch(t, []UserRole{RoleTeacher, RoleStudent}, RoleTeacher.Capabilities())
	assert.ElementsMatch(t, []UserRole{RoleStudent}, RoleStudent.Capabilities())

	assert.True(t, RoleAdmin.HasCapability(RoleStudent))
	assert.False(t, RoleAdmin.HasCapability(RoleTeacher))
	assert.True(t, RoleSuperUser.HasCapability(RoleTeacher))
}

func TestRolePredicates(t *testing.T) {
	assert.True(t, RoleSuperUser.IsAdmin())
	assert.True(t, RoleAdmin.IsAdmin())
	assert.False(t, RoleTeacher.IsAdmin())

	assert.True(t, RoleTeacher.IsTeacher())
	assert.True(t, RoleAdmin.IsTeacher())
	assert.False(t, RoleStudent.IsTeacher())

	assert.True(t, RoleStudent.IsStudent())
	assert.False(t, RoleAdmin.IsStudent())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleStudent.Valid())
	assert.False(t, UserRole("PROFESSOR").Valid())
	assert.False(t, UserRole("").HasPermissionOver(RoleStudent))
}
