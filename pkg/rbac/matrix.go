package rbac

// RoleDefinition describes a built-in role for introspection and display
type RoleDefinition struct {
	Name        Role          `json:"name" yaml:"name"`
	DisplayName string        `json:"displayName" yaml:"displayName"`
	Description string        `json:"description" yaml:"description"`
	Rank        int           `json:"rank" yaml:"rank"`
	IsAdmin     bool          `json:"isAdmin" yaml:"isAdmin"`
	Permissions PermissionSet `json:"permissions" yaml:"-"`
}

var roleDescriptions = map[Role][2]string{
	RoleSuperAdmin:      {"Super Admin", "Platform-wide access across every tenant"},
	RoleTenantAdmin:     {"Tenant Admin", "Full access within a single tenant"},
	RoleContentManager:  {"Content Manager", "Manages courses, lessons and learning content"},
	RoleUserManager:     {"User Manager", "Manages users, groups, enrollments and role assignments"},
	RoleAnalyticsViewer: {"Analytics Viewer", "Read and export analytics and reports"},
	RoleInstructor:      {"Instructor", "Authors and teaches courses"},
	RoleMentor:          {"Mentor", "Supports learners through mentorships"},
	RoleStudent:         {"Student", "Consumes courses and submits work"},
}

// roleMatrix is built once during package initialisation and never written again
var roleMatrix = buildRoleMatrix()

func buildRoleMatrix() map[Role]PermissionSet {
	tenantAdmin := make([]Permission, 0, len(catalogEntries))
	for _, p := range catalogEntries {
		if p == PermTenantsCreate || p == PermTenantsDelete {
			continue
		}
		tenantAdmin = append(tenantAdmin, p)
	}

	return map[Role]PermissionSet{
		RoleSuperAdmin:  NewPermissionSet(catalogEntries[:]...),
		RoleTenantAdmin: NewPermissionSet(tenantAdmin...),
		RoleContentManager: NewPermissionSet(
			PermCoursesCreate, PermCoursesRead, PermCoursesUpdate, PermCoursesDelete, PermCoursesPublish,
			PermLessonsCreate, PermLessonsRead, PermLessonsUpdate, PermLessonsDelete,
			PermQuizzesCreate, PermQuizzesRead, PermQuizzesUpdate, PermQuizzesDelete,
			PermAssignmentsCreate, PermAssignmentsRead, PermAssignmentsUpdate, PermAssignmentsDelete,
			PermContentUpload, PermContentRead, PermContentDelete,
			PermCertificatesRead,
			PermDiscussionsRead, PermDiscussionsModerate,
			PermGroupsRead,
			PermEnrollmentsRead,
			PermAnalyticsRead,
			PermReportsRead,
		),
		RoleUserManager: NewPermissionSet(
			PermUsersCreate, PermUsersRead, PermUsersUpdate, PermUsersDelete, PermUsersInvite,
			PermRolesRead, PermRolesAssign,
			PermGroupsCreate, PermGroupsRead, PermGroupsUpdate, PermGroupsDelete, PermGroupsManageMembers,
			PermEnrollmentsCreate, PermEnrollmentsRead, PermEnrollmentsUpdate, PermEnrollmentsDelete,
			PermProgressRead,
			PermReportsRead,
			PermCoursesRead,
			PermMentorshipsCreate, PermMentorshipsRead, PermMentorshipsUpdate,
			PermCertificatesRead,
		),
		RoleAnalyticsViewer: NewPermissionSet(
			PermAnalyticsRead, PermAnalyticsExport,
			PermReportsCreate, PermReportsRead, PermReportsExport,
			PermProgressRead, PermProgressExport,
			PermCoursesRead,
			PermGroupsRead,
			PermUsersRead,
			PermEnrollmentsRead,
		),
		RoleInstructor: NewPermissionSet(
			PermCoursesCreate, PermCoursesRead, PermCoursesUpdate, PermCoursesPublish,
			PermLessonsCreate, PermLessonsRead, PermLessonsUpdate, PermLessonsDelete,
			PermQuizzesCreate, PermQuizzesRead, PermQuizzesUpdate, PermQuizzesDelete, PermQuizzesGrade,
			PermAssignmentsCreate, PermAssignmentsRead, PermAssignmentsUpdate, PermAssignmentsDelete,
			PermAssignmentsGrade,
			PermEnrollmentsRead,
			PermProgressRead, PermProgressUpdate,
			PermAnalyticsRead,
			PermContentUpload, PermContentRead,
			PermDiscussionsCreate, PermDiscussionsRead, PermDiscussionsModerate,
			PermCertificatesIssue, PermCertificatesRead,
			PermGroupsRead,
			PermUsersRead,
		),
		RoleMentor: NewPermissionSet(
			PermCoursesRead,
			PermLessonsRead,
			PermQuizzesRead,
			PermAssignmentsRead,
			PermProgressRead,
			PermMentorshipsRead, PermMentorshipsUpdate,
			PermDiscussionsCreate, PermDiscussionsRead,
			PermUsersRead,
			PermGroupsRead,
		),
		RoleStudent: NewPermissionSet(
			PermCoursesRead,
			PermLessonsRead,
			PermQuizzesRead,
			PermAssignmentsRead, PermAssignmentsSubmit,
			PermProgressRead,
			PermCertificatesRead,
			PermContentRead,
			PermDiscussionsCreate, PermDiscussionsRead,
			PermEnrollmentsRead,
			PermMentorshipsRead,
		),
	}
}

// Permissions returns the fixed permission set granted to a role. A role
// outside the built-in set gets the empty set.
func Permissions(role Role) PermissionSet {
	return roleMatrix[role]
}

// BuiltInRoles returns the definition of every built-in role, highest rank first
func BuiltInRoles() []RoleDefinition {
	defs := make([]RoleDefinition, 0, len(allRoles))
	for _, r := range allRoles {
		desc := roleDescriptions[r]
		defs = append(defs, RoleDefinition{
			Name:        r,
			DisplayName: desc[0],
			Description: desc[1],
			Rank:        Rank(r),
			IsAdmin:     IsAdminRole(r),
			Permissions: Permissions(r),
		})
	}
	return defs
}
