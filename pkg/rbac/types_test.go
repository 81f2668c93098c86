package rbac

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, role := range AllRoles() {
		got, err := ParseRole(string(role))
		require.NoError(t, err)
		assert.Equal(t, role, got)
	}

	got, err := ParseRole("  mentor ")
	require.NoError(t, err)
	assert.Equal(t, RoleMentor, got)

	for _, raw := range []string{"", "admin", "Student", "SUPER-ADMIN", "super_admin"} {
		t.Run(raw, func(t *testing.T) {
			got, err := ParseRole(raw)
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnknownRole))
			assert.Equal(t, Role(""), got)
		})
	}
}

func TestParsePermission(t *testing.T) {
	p, err := ParsePermission("courses:create")
	require.NoError(t, err)
	assert.Equal(t, PermCoursesCreate, p)

	for _, raw := range []string{"", "courses", "Courses:Create", " courses:create", "courses:*", "rockets:launch"} {
		_, err := ParsePermission(raw)
		assert.ErrorIs(t, err, ErrUnknownPermission, "input %q", raw)
	}
}

func TestPermission_Parts(t *testing.T) {
	assert.Equal(t, ResourceGroups, PermGroupsManageMembers.Resource())
	assert.Equal(t, ActionManageMembers, PermGroupsManageMembers.Action())
	assert.Equal(t, Resource("broken"), Permission("broken").Resource())
	assert.Equal(t, Action(""), Permission("broken").Action())
}

func TestPermissionSet(t *testing.T) {
	t.Run("zero value is empty", func(t *testing.T) {
		var s PermissionSet
		assert.True(t, s.IsEmpty())
		assert.False(t, s.Has(PermCoursesRead))
		assert.Empty(t, s.Slice())
	})

	t.Run("deduplicates and sorts", func(t *testing.T) {
		s := NewPermissionSet(PermUsersRead, PermCoursesRead, PermUsersRead)
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, []Permission{PermCoursesRead, PermUsersRead}, s.Slice())
	})

	t.Run("union leaves operands untouched", func(t *testing.T) {
		a := NewPermissionSet(PermCoursesRead)
		b := NewPermissionSet(PermUsersRead)
		u := a.Union(b)
		assert.Equal(t, 2, u.Len())
		assert.Equal(t, 1, a.Len())
		assert.Equal(t, 1, b.Len())
	})

	t.Run("json round trip", func(t *testing.T) {
		s := NewPermissionSet(PermUsersRead, PermCoursesRead)
		data, err := json.Marshal(s)
		require.NoError(t, err)
		assert.JSONEq(t, `["courses:read","users:read"]`, string(data))

		var decoded PermissionSet
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, s.Slice(), decoded.Slice())
	})

	t.Run("json null decodes to empty", func(t *testing.T) {
		var decoded PermissionSet
		require.NoError(t, json.Unmarshal([]byte(`null`), &decoded))
		assert.True(t, decoded.IsEmpty())
	})
}

func TestParsePermissionSet(t *testing.T) {
	set, rejected := ParsePermissionSet([]string{"courses:create", "COURSES:CREATE", "rockets:launch", "users:read"})
	assert.Equal(t, []Permission{PermCoursesCreate, PermUsersRead}, set.Slice())
	assert.Equal(t, []string{"COURSES:CREATE", "rockets:launch"}, rejected)

	set, rejected = ParsePermissionSet(nil)
	assert.True(t, set.IsEmpty())
	assert.Empty(t, rejected)
}
