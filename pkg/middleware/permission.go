package middleware

import (
	"net/http"

	"github.com/platinummonkey/gatekeep/pkg/auth"
	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

// RequirePermission denies principals that do not hold the permission
// through their role or custom grants
func RequirePermission(perm rbac.Permission) Guard {
	return NewGuard("require-permission", func(r *http.Request, p *auth.Principal) *Denial {
		if p.HasPermission(perm) {
			return nil
		}
		return ErrPermissionDenied(perm, p.Role)
	})
}

// RequireAnyPermission allows principals holding at least one of perms
func RequireAnyPermission(perms ...rbac.Permission) Guard {
	required := append([]rbac.Permission(nil), perms...)

	return NewGuard("require-any-permission", func(r *http.Request, p *auth.Principal) *Denial {
		for _, perm := range required {
			if p.HasPermission(perm) {
				return nil
			}
		}
		return ErrAnyPermissionDenied(required, p.Role)
	})
}

// RequireAllPermissions denies on the first permission the principal lacks
func RequireAllPermissions(perms ...rbac.Permission) Guard {
	required := append([]rbac.Permission(nil), perms...)

	return NewGuard("require-all-permissions", func(r *http.Request, p *auth.Principal) *Denial {
		for _, perm := range required {
			if !p.HasPermission(perm) {
				return ErrPermissionDenied(perm, p.Role)
			}
		}
		return nil
	})
}

// RequireResourceAccess checks the resource:action pair
func RequireResourceAccess(resource rbac.Resource, action rbac.Action) Guard {
	return NewGuard("require-resource-access", func(r *http.Request, p *auth.Principal) *Denial {
		if rbac.CanAccessResource(p.Role, resource, action, p.CustomPermissions) {
			return nil
		}
		return ErrAccessDenied(resource, action, p.Role)
	})
}
