// Package rbac holds the compiled-in authorization model: the permission
// catalog, the role matrix, the role hierarchy and the pure resolver
// functions built on top of them.
//
// # Overview
//
// Every principal holds exactly one Role. A Role grants a fixed set of
// Permissions, each a "resource:action" token drawn from a closed catalog.
// Principals may also carry custom permissions which are strictly additive.
//
//	rbac.HasPermission(rbac.RoleStudent, rbac.PermCoursesRead, rbac.PermissionSet{})  // true
//	rbac.CanAccessResource(rbac.RoleMentor, rbac.ResourceCourses, rbac.ActionUpdate, custom)
//
// # Roles
//
//	Role               Rank  Admin
//	super-admin        8     yes
//	tenant-admin       7     yes
//	content-manager    6     yes
//	user-manager       6     yes
//	analytics-viewer   5     no
//	instructor         4     no
//	mentor             3     no
//	student            1     no
//
// Ranks are only compared to each other. An actor may change a target's role
// when it strictly outranks the target and does not assign a role above its
// own (CanChangeRole).
//
// # Ownership
//
// CanEditOwnResource lets super-admin, tenant-admin and content-manager edit
// anything and instructors edit what they own. Other roles never pass.
//
// # Untrusted input
//
// Strings arriving from requests, sessions or the CLI go through ParseRole,
// ParsePermission or ParsePermissionSet. Unknown values are rejected rather
// than mapped to a low-privilege default.
//
// # Concurrency
//
// The catalog, matrix and hierarchy are built during package initialisation
// and only exposed through accessors returning read-only views, so they can be
// shared by any number of goroutines without locking.
//
// # Related Packages
//
//   - pkg/middleware: guard chain built on these functions
//   - pkg/auth: Principal carrying role, tenant and custom permissions
package rbac
