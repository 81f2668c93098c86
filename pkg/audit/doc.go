// Package audit records authorization decisions for security review.
//
// # Event Types
//
//   - authz.access_denied: a guard rejected the request
//   - authz.role_change: a role change was applied
//   - authz.permission_check: an explicit permission check was answered
//
// # Usage Example
//
//	logger := audit.NewLogrusLogger(os.Stdout)
//	ctx = audit.WithLogger(ctx, logger)
//
//	event := audit.NewEvent(r, audit.EventTypeAuthzAccessDenied, audit.EventStatusDenied)
//	event.Guard = "require-permission"
//	event.DenialKind = "PermissionDenied"
//	_ = audit.FromContext(ctx).LogAuthorization(ctx, event)
//
// FromContext returns a no-op logger when none is configured, so callers
// never need a nil check.
//
// # Related Packages
//
//   - pkg/middleware: emits one event per denied request
//   - pkg/api: emits role change events
package audit
