package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/gatekeep/pkg/audit"
	"github.com/platinummonkey/gatekeep/pkg/auth"
	"github.com/platinummonkey/gatekeep/pkg/httputil"
	"github.com/platinummonkey/gatekeep/pkg/middleware"
	"github.com/platinummonkey/gatekeep/pkg/observability"
	"github.com/platinummonkey/gatekeep/pkg/ownership"
	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

var errCheckTarget = errors.New("either permission or resource and action is required")

// getMyPermissions returns the caller's role and effective permissions
func (s *Server) getMyPermissions(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	_ = httputil.WriteSuccess(w, PermissionsResponse{
		ID:          p.ID,
		Role:        p.Role,
		TenantID:    p.TenantID,
		Status:      p.Status,
		IsAdmin:     rbac.IsAdminRole(p.Role),
		Permissions: p.EffectivePermissions().Strings(),
	})
}

// checkPermission answers a single permission question for the caller
func (s *Server) checkPermission(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	var req CheckRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	perm, err := checkTarget(req)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	resp := CheckResponse{
		Permission: perm,
		Allowed:    p.HasPermission(perm),
	}
	if req.ResourceOwnerID != "" {
		canEdit := rbac.CanEditOwnResource(p.Role, req.ResourceOwnerID, p.ID, p.CustomPermissions)
		resp.CanEditOwn = &canEdit
	}

	status := audit.EventStatusSuccess
	if !resp.Allowed {
		status = audit.EventStatusDenied
	}
	event := audit.NewEvent(r, audit.EventTypeAuthzPermissionCheck, status)
	event.PrincipalID = p.ID
	event.Role = string(p.Role)
	event.TenantID = p.TenantID
	event.ResourceType = string(perm.Resource())
	event.Metadata["permission"] = string(perm)
	s.logAudit(r, event)

	_ = httputil.WriteSuccess(w, resp)
}

func checkTarget(req CheckRequest) (rbac.Permission, error) {
	if req.Permission != "" {
		return rbac.ParsePermission(req.Permission)
	}
	if req.Resource == "" || req.Action == "" {
		return "", errCheckTarget
	}
	return rbac.ParsePermission(string(rbac.NewPermission(rbac.Resource(req.Resource), rbac.Action(req.Action))))
}

// listRoles returns the built-in role definitions
func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	_ = httputil.WriteSuccess(w, RolesResponse{Roles: rbac.BuiltInRoles()})
}

// changeRole applies a role change the guard chain already approved
func (s *Server) changeRole(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)
	tenantID := httputil.PathParam(r, "tenantId")
	userID := httputil.PathParam(r, "userId")

	var req RoleChangeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	previous, err := rbac.ParseRole(req.TargetCurrentRole)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	newRole, err := rbac.ParseRole(req.NewRole)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	applied := false
	if s.opts.Roles != nil {
		err := s.opts.Roles.AssignRole(r.Context(), tenantID, userID, previous, newRole)
		if errors.Is(err, ownership.ErrNotFound) {
			httputil.WriteNotFoundError(w, "User not found in tenant")
			return
		}
		if errors.Is(err, ownership.ErrRoleConflict) {
			s.logAudit(r, roleChangeEvent(r, p, tenantID, userID, previous, newRole, audit.EventStatusDenied, false))
			httputil.WriteConflict(w, "User does not hold the stated current role")
			return
		}
		if err != nil {
			observability.FromContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
				"tenant_id": tenantID,
				"user_id":   userID,
				"new_role":  newRole,
			}).Error("Failed to assign role")
			httputil.WriteInternalError(w)
			return
		}
		applied = true
	}

	s.logAudit(r, roleChangeEvent(r, p, tenantID, userID, previous, newRole, audit.EventStatusSuccess, applied))

	_ = httputil.WriteSuccess(w, RoleChangeResponse{
		UserID:       userID,
		TenantID:     tenantID,
		PreviousRole: previous,
		NewRole:      newRole,
		Applied:      applied,
	})
}

func roleChangeEvent(r *http.Request, p *auth.Principal, tenantID, userID string, previous, newRole rbac.Role, status audit.EventStatus, applied bool) *audit.AuditEvent {
	event := audit.NewEvent(r, audit.EventTypeAuthzRoleChange, status)
	event.PrincipalID = p.ID
	event.Role = string(p.Role)
	event.TenantID = tenantID
	event.ResourceType = string(rbac.ResourceUsers)
	event.ResourceID = userID
	event.Metadata["previous_role"] = string(previous)
	event.Metadata["new_role"] = string(newRole)
	event.Metadata["applied"] = applied
	return event
}

// updateCourse acknowledges an update by the course owner or an admin
func (s *Server) updateCourse(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	_ = httputil.WriteSuccess(w, CourseUpdateResponse{
		CourseID:  httputil.PathParam(r, "courseId"),
		TenantID:  httputil.PathParam(r, "tenantId"),
		UpdatedBy: p.ID,
	})
}

// getAnalytics reports the caller's analytics access for the tenant
func (s *Server) getAnalytics(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r)

	_ = httputil.WriteSuccess(w, AnalyticsResponse{
		TenantID:      httputil.PathParam(r, "tenantId"),
		ExportAllowed: rbac.CanAccessResource(p.Role, rbac.ResourceAnalytics, rbac.ActionExport, p.CustomPermissions),
	})
}

func (s *Server) logAudit(r *http.Request, event *audit.AuditEvent) {
	if err := s.auditor.LogAuthorization(r.Context(), event); err != nil {
		observability.FromContext(r.Context()).WithError(err).Warn("Failed to write audit event")
	}
}
