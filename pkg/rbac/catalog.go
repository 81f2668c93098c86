package rbac

// Resources covered by the catalog
const (
	ResourceCourses      Resource = "courses"
	ResourceLessons      Resource = "lessons"
	ResourceQuizzes      Resource = "quizzes"
	ResourceAssignments  Resource = "assignments"
	ResourceEnrollments  Resource = "enrollments"
	ResourceGroups       Resource = "groups"
	ResourceUsers        Resource = "users"
	ResourceRoles        Resource = "roles"
	ResourceProgress     Resource = "progress"
	ResourceAnalytics    Resource = "analytics"
	ResourceReports      Resource = "reports"
	ResourceCertificates Resource = "certificates"
	ResourceContent      Resource = "content"
	ResourceDiscussions  Resource = "discussions"
	ResourceMentorships  Resource = "mentorships"
	ResourceTenants      Resource = "tenants"
	ResourceSettings     Resource = "settings"
	ResourceAudit        Resource = "audit"
	ResourceBilling      Resource = "billing"
)

// Actions used by the catalog
const (
	ActionCreate        Action = "create"
	ActionRead          Action = "read"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionPublish       Action = "publish"
	ActionGrade         Action = "grade"
	ActionSubmit        Action = "submit"
	ActionManageMembers Action = "manage-members"
	ActionInvite        Action = "invite"
	ActionAssign        Action = "assign"
	ActionExport        Action = "export"
	ActionIssue         Action = "issue"
	ActionRevoke        Action = "revoke"
	ActionUpload        Action = "upload"
	ActionModerate      Action = "moderate"
)

// Permission catalog
const (
	PermCoursesCreate  Permission = "courses:create"
	PermCoursesRead    Permission = "courses:read"
	PermCoursesUpdate  Permission = "courses:update"
	PermCoursesDelete  Permission = "courses:delete"
	PermCoursesPublish Permission = "courses:publish"

	PermLessonsCreate Permission = "lessons:create"
	PermLessonsRead   Permission = "lessons:read"
	PermLessonsUpdate Permission = "lessons:update"
	PermLessonsDelete Permission = "lessons:delete"

	PermQuizzesCreate Permission = "quizzes:create"
	PermQuizzesRead   Permission = "quizzes:read"
	PermQuizzesUpdate Permission = "quizzes:update"
	PermQuizzesDelete Permission = "quizzes:delete"
	PermQuizzesGrade  Permission = "quizzes:grade"

	PermAssignmentsCreate Permission = "assignments:create"
	PermAssignmentsRead   Permission = "assignments:read"
	PermAssignmentsUpdate Permission = "assignments:update"
	PermAssignmentsDelete Permission = "assignments:delete"
	PermAssignmentsSubmit Permission = "assignments:submit"
	PermAssignmentsGrade  Permission = "assignments:grade"

	PermEnrollmentsCreate Permission = "enrollments:create"
	PermEnrollmentsRead   Permission = "enrollments:read"
	PermEnrollmentsUpdate Permission = "enrollments:update"
	PermEnrollmentsDelete Permission = "enrollments:delete"

	PermGroupsCreate        Permission = "groups:create"
	PermGroupsRead          Permission = "groups:read"
	PermGroupsUpdate        Permission = "groups:update"
	PermGroupsDelete        Permission = "groups:delete"
	PermGroupsManageMembers Permission = "groups:manage-members"

	PermUsersCreate Permission = "users:create"
	PermUsersRead   Permission = "users:read"
	PermUsersUpdate Permission = "users:update"
	PermUsersDelete Permission = "users:delete"
	PermUsersInvite Permission = "users:invite"

	PermRolesRead   Permission = "roles:read"
	PermRolesAssign Permission = "roles:assign"

	PermProgressRead   Permission = "progress:read"
	PermProgressUpdate Permission = "progress:update"
	PermProgressExport Permission = "progress:export"

	PermAnalyticsRead   Permission = "analytics:read"
	PermAnalyticsExport Permission = "analytics:export"

	PermReportsCreate Permission = "reports:create"
	PermReportsRead   Permission = "reports:read"
	PermReportsExport Permission = "reports:export"

	PermCertificatesIssue  Permission = "certificates:issue"
	PermCertificatesRead   Permission = "certificates:read"
	PermCertificatesRevoke Permission = "certificates:revoke"

	PermContentUpload Permission = "content:upload"
	PermContentRead   Permission = "content:read"
	PermContentDelete Permission = "content:delete"

	PermDiscussionsCreate   Permission = "discussions:create"
	PermDiscussionsRead     Permission = "discussions:read"
	PermDiscussionsModerate Permission = "discussions:moderate"

	PermMentorshipsCreate Permission = "mentorships:create"
	PermMentorshipsRead   Permission = "mentorships:read"
	PermMentorshipsUpdate Permission = "mentorships:update"

	PermTenantsCreate Permission = "tenants:create"
	PermTenantsRead   Permission = "tenants:read"
	PermTenantsUpdate Permission = "tenants:update"
	PermTenantsDelete Permission = "tenants:delete"

	PermSettingsRead   Permission = "settings:read"
	PermSettingsUpdate Permission = "settings:update"

	PermAuditRead Permission = "audit:read"

	PermBillingRead   Permission = "billing:read"
	PermBillingUpdate Permission = "billing:update"
)

// catalogEntries lists every permission once, grouped by resource
var catalogEntries = [...]Permission{
	PermCoursesCreate, PermCoursesRead, PermCoursesUpdate, PermCoursesDelete, PermCoursesPublish,
	PermLessonsCreate, PermLessonsRead, PermLessonsUpdate, PermLessonsDelete,
	PermQuizzesCreate, PermQuizzesRead, PermQuizzesUpdate, PermQuizzesDelete, PermQuizzesGrade,
	PermAssignmentsCreate, PermAssignmentsRead, PermAssignmentsUpdate, PermAssignmentsDelete,
	PermAssignmentsSubmit, PermAssignmentsGrade,
	PermEnrollmentsCreate, PermEnrollmentsRead, PermEnrollmentsUpdate, PermEnrollmentsDelete,
	PermGroupsCreate, PermGroupsRead, PermGroupsUpdate, PermGroupsDelete, PermGroupsManageMembers,
	PermUsersCreate, PermUsersRead, PermUsersUpdate, PermUsersDelete, PermUsersInvite,
	PermRolesRead, PermRolesAssign,
	PermProgressRead, PermProgressUpdate, PermProgressExport,
	PermAnalyticsRead, PermAnalyticsExport,
	PermReportsCreate, PermReportsRead, PermReportsExport,
	PermCertificatesIssue, PermCertificatesRead, PermCertificatesRevoke,
	PermContentUpload, PermContentRead, PermContentDelete,
	PermDiscussionsCreate, PermDiscussionsRead, PermDiscussionsModerate,
	PermMentorshipsCreate, PermMentorshipsRead, PermMentorshipsUpdate,
	PermTenantsCreate, PermTenantsRead, PermTenantsUpdate, PermTenantsDelete,
	PermSettingsRead, PermSettingsUpdate,
	PermAuditRead,
	PermBillingRead, PermBillingUpdate,
}

var catalog = NewPermissionSet(catalogEntries[:]...)

// Catalog returns every known permission, sorted
func Catalog() []Permission {
	return catalog.Slice()
}

// CatalogSet returns the catalog as a read-only set
func CatalogSet() PermissionSet {
	return catalog
}

// IsKnownPermission reports whether p is in the catalog
func IsKnownPermission(p Permission) bool {
	return catalog.Has(p)
}
