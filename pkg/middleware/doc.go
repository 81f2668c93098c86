// Package middleware provides HTTP middleware for authentication, authorization, and rate limiting.
//
// # Overview
//
// AuthMiddleware resolves the bearer token to an auth.Principal and attaches
// it to the request context. Guards then decide, one by one, whether that
// principal may reach the handler. A guard either allows, passing the request
// on unchanged, or produces a Denial that becomes the response. Nothing after
// the first denial runs.
//
// # Guards
//
//	RequireAuthenticated()                    401 without a principal
//	RequireAnyRole(roles...)                  403 InsufficientRole
//	RequirePermission(perm)                   403 PermissionDenied
//	RequireAnyPermission(perms...)            403 PermissionDenied
//	RequireAllPermissions(perms...)           403 PermissionDenied (first missing)
//	RequireResourceAccess(resource, action)   403 AccessDenied
//	RequireOwnershipOrAdmin(param, lookup)    403 OwnershipDenied
//	RequireTenantOwnershipOrAdmin(param, l)   403 OwnershipDenied (resource outside the tenant too)
//	RequireActiveAccount()                    403 AccountInactive
//	RequireTenantMatch()                      403 TenantAccessDenied
//	RequireRoleChangePermission()             400 BadRequest / 403 RoleChangeNotAllowed
//
// Every guard treats a missing principal as Unauthenticated.
//
// # Usage
//
//	authz := middleware.NewAuthorizer(
//	    middleware.WithMetrics(metrics),
//	    middleware.WithAuditLogger(auditLogger),
//	)
//	router.Handle("/v1/tenants/{tenantId}/users/{userId}/role",
//	    authz.Chain(
//	        middleware.RequireAuthenticated(),
//	        middleware.RequireActiveAccount(),
//	        middleware.RequireTenantMatch(),
//	        middleware.RequireRoleChangePermission(),
//	    )(handler))
//
// # Denials
//
// Denial bodies are JSON objects with "error" and "message" plus
// kind-specific fields such as "required", "current" or "role". Internal
// causes (a failed owner lookup, for example) are logged and never
// written to the client.
//
// # Rate Limiting
//
// RateLimitMiddleware keeps fixed-window counters in Redis. IPHandler runs
// before AuthMiddleware and limits every request by client IP, so failed
// authentication attempts are throttled too; Handler runs after it and
// limits by principal ID. Client IPs come from X-Forwarded-For only when the
// direct peer is a trusted proxy. Both fail open when Redis is unavailable
// unless SetFailOpen(false) is called.
package middleware
