package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleMatrix_Shape(t *testing.T) {
	assert.Len(t, roleMatrix, 8)

	for _, role := range AllRoles() {
		perms := Permissions(role)
		assert.False(t, perms.IsEmpty(), "role %s has no permissions", role)
		for _, p := range perms.Slice() {
			assert.True(t, IsKnownPermission(p), "role %s grants %s which is not in the catalog", role, p)
		}
	}
}

func TestRoleMatrix_Contents(t *testing.T) {
	t.Run("super admin holds the whole catalog", func(t *testing.T) {
		assert.Equal(t, Catalog(), Permissions(RoleSuperAdmin).Slice())
	})

	t.Run("tenant admin holds everything but tenant lifecycle", func(t *testing.T) {
		perms := Permissions(RoleTenantAdmin)
		assert.Equal(t, len(catalogEntries)-2, perms.Len())
		assert.False(t, perms.Has(PermTenantsCreate))
		assert.False(t, perms.Has(PermTenantsDelete))
		assert.True(t, perms.Has(PermTenantsRead))
		assert.True(t, perms.Has(PermUsersCreate))
	})

	tests := []struct {
		role   Role
		has    []Permission
		hasNot []Permission
	}{
		{
			role:   RoleContentManager,
			has:    []Permission{PermCoursesDelete, PermContentUpload, PermDiscussionsModerate},
			hasNot: []Permission{PermUsersCreate, PermRolesAssign, PermBillingRead},
		},
		{
			role:   RoleUserManager,
			has:    []Permission{PermUsersCreate, PermRolesAssign, PermGroupsManageMembers},
			hasNot: []Permission{PermCoursesCreate, PermContentUpload, PermSettingsUpdate},
		},
		{
			role:   RoleAnalyticsViewer,
			has:    []Permission{PermAnalyticsExport, PermReportsCreate, PermProgressExport},
			hasNot: []Permission{PermCoursesUpdate, PermUsersUpdate},
		},
		{
			role:   RoleInstructor,
			has:    []Permission{PermCoursesCreate, PermQuizzesGrade, PermCertificatesIssue},
			hasNot: []Permission{PermCoursesDelete, PermUsersCreate, PermCertificatesRevoke},
		},
		{
			role:   RoleMentor,
			has:    []Permission{PermMentorshipsUpdate, PermDiscussionsCreate},
			hasNot: []Permission{PermMentorshipsCreate, PermAssignmentsSubmit},
		},
		{
			role:   RoleStudent,
			has:    []Permission{PermCoursesRead, PermAssignmentsSubmit},
			hasNot: []Permission{PermCoursesCreate, PermAssignmentsGrade, PermUsersRead},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			perms := Permissions(tt.role)
			for _, p := range tt.has {
				assert.True(t, perms.Has(p), "expected %s", p)
			}
			for _, p := range tt.hasNot {
				assert.False(t, perms.Has(p), "unexpected %s", p)
			}
		})
	}
}

func TestPermissions_UnknownRoleFailsClosed(t *testing.T) {
	for _, raw := range []string{"", "admin", "Super-Admin", "super-admin ", "root"} {
		assert.True(t, Permissions(Role(raw)).IsEmpty(), "role %q", raw)
	}
}

func TestPermissions_ReturnedSliceIsACopy(t *testing.T) {
	perms := Permissions(RoleStudent).Slice()
	require.NotEmpty(t, perms)
	perms[0] = PermBillingUpdate
	assert.False(t, Permissions(RoleStudent).Has(PermBillingUpdate))
}

func TestCatalog(t *testing.T) {
	cat := Catalog()
	assert.Len(t, cat, len(catalogEntries))
	assert.GreaterOrEqual(t, len(cat), 60)

	seen := make(map[Permission]bool, len(cat))
	for _, p := range cat {
		assert.False(t, seen[p], "duplicate %s", p)
		seen[p] = true
		assert.NotEmpty(t, p.Resource(), "permission %s has no resource", p)
		assert.NotEmpty(t, p.Action(), "permission %s has no action", p)
		assert.Equal(t, p, NewPermission(p.Resource(), p.Action()))
	}
}

func TestBuiltInRoles(t *testing.T) {
	defs := BuiltInRoles()
	require.Len(t, defs, 8)

	for i, def := range defs {
		assert.Equal(t, allRoles[i], def.Name)
		assert.NotEmpty(t, def.DisplayName)
		assert.NotEmpty(t, def.Description)
		assert.Equal(t, Rank(def.Name), def.Rank)
		assert.Equal(t, IsAdminRole(def.Name), def.IsAdmin)
		assert.Equal(t, Permissions(def.Name).Slice(), def.Permissions.Slice())
		if i > 0 {
			assert.LessOrEqual(t, def.Rank, defs[i-1].Rank)
		}
	}
}
