// Package auth provides the authenticated principal and the session layer
// that produces it.
//
// # Principal
//
// A Principal carries everything the guard chain reads: id, role, tenant,
// account status and custom permissions. It is attached to the request
// context once and never modified afterwards.
//
//	ctx = auth.WithPrincipal(ctx, &auth.Principal{
//		ID:       "u-42",
//		Role:     rbac.RoleInstructor,
//		TenantID: "acme",
//		Status:   auth.StatusActive,
//	})
//
// # Sessions
//
// SessionStore maps bearer tokens to principals in Redis. Tokens look like
// gk_<base64url(32 random bytes)> and are stored under their SHA256 hash.
// Records are validated on every lookup: an unknown role or status rejects
// the session, unknown custom permissions are dropped.
//
// # Related Packages
//
//   - pkg/middleware: AuthMiddleware attaches the principal, guards read it
//   - pkg/rbac: role and permission model
package auth
