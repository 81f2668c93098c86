// Package api provides the HTTP API of the gatekeep authorization service.
//
// # Overview
//
// The API exposes the permission resolver to other services and front ends
// and demonstrates the guard chains of package middleware on real routes.
// Every /v1 route authenticates the bearer token against the session store
// and then runs its guard chain; the first failing guard answers the request.
//
// # Routes
//
//	GET   /healthz                                    liveness
//	GET   /readyz                                     readiness (Redis, database)
//	GET   /v1/me/permissions                          caller's effective permissions
//	POST  /v1/authz/check                             does the caller hold a permission
//	GET   /v1/roles                                   built-in roles (roles:read)
//	PUT   /v1/tenants/{tenantId}/users/{userId}/role  change a user's role
//	PATCH /v1/tenants/{tenantId}/courses/{courseId}   update an owned course
//	GET   /v1/tenants/{tenantId}/analytics            tenant analytics (analytics:read)
//
// # Usage
//
//	server := api.NewServer(api.Options{
//	    Sessions:     sessionStore,
//	    CourseOwners: ownerStore.ForTenantResource("courses"),
//	    Audit:        auditLogger,
//	    Logger:       logger,
//	    Metrics:      metrics,
//	})
//	http.ListenAndServe(":8080", server.Handler())
//
// Role changes are only persisted when Options.Roles is set; otherwise the
// response reports applied=false after the guards approve the change.
package api
