package rbac

// editBypassRoles may edit any resource regardless of who owns it
var editBypassRoles = map[Role]struct{}{
	RoleSuperAdmin:     {},
	RoleTenantAdmin:    {},
	RoleContentManager: {},
}

var adminRoles = map[Role]struct{}{
	RoleSuperAdmin:     {},
	RoleTenantAdmin:    {},
	RoleContentManager: {},
	RoleUserManager:    {},
}

// HasPermission reports whether permission is granted to role directly or
// through the principal's custom permissions. Matching is exact and
// case-sensitive; a permission outside the catalog is never granted.
func HasPermission(role Role, permission Permission, custom PermissionSet) bool {
	if !IsKnownPermission(permission) {
		return false
	}
	return Permissions(role).Has(permission) || custom.Has(permission)
}

// EffectivePermissions returns the union of the role's permissions and the
// custom permissions. It is meant for introspection, not for access checks.
func EffectivePermissions(role Role, custom PermissionSet) PermissionSet {
	known, _ := ParsePermissionSet(custom.Strings())
	return Permissions(role).Union(known)
}

// CanAccessResource checks the permission "resource:action"
func CanAccessResource(role Role, resource Resource, action Action, custom PermissionSet) bool {
	return HasPermission(role, NewPermission(resource, action), custom)
}

// CanEditOwnResource applies the ownership rule: bypass roles may edit
// anything, instructors may edit only what they own, everyone else may not.
// An empty owner never matches. Custom permissions do not grant ownership.
func CanEditOwnResource(role Role, resourceOwnerID, principalID string, custom PermissionSet) bool {
	if _, ok := editBypassRoles[role]; ok {
		return true
	}
	if role == RoleInstructor {
		return resourceOwnerID != "" && resourceOwnerID == principalID
	}
	return false
}

// IsAdminRole reports whether role belongs to the administrative tier
func IsAdminRole(role Role) bool {
	_, ok := adminRoles[role]
	return ok
}
