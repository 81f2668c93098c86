package rbac

// roleRanks orders roles for role reassignment. Only relative order matters:
// content-manager and user-manager share a rank and nothing sits at 2.
var roleRanks = map[Role]int{
	RoleSuperAdmin:      8,
	RoleTenantAdmin:     7,
	RoleContentManager:  6,
	RoleUserManager:     6,
	RoleAnalyticsViewer: 5,
	RoleInstructor:      4,
	RoleMentor:          3,
	RoleStudent:         1,
}

// Rank returns the hierarchy rank of a role, or 0 for an unknown role
func Rank(role Role) int {
	return roleRanks[role]
}

// CanChangeRole reports whether an actor may move a target from its current
// role to newRole. The actor must outrank the target and may not assign a role
// above its own.
func CanChangeRole(actorRole, targetCurrentRole, newRole Role) bool {
	if !actorRole.IsValid() || !targetCurrentRole.IsValid() || !newRole.IsValid() {
		return false
	}
	actor := Rank(actorRole)
	return actor > Rank(targetCurrentRole) && actor >= Rank(newRole)
}
