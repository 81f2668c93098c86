package api

import (
	"github.com/platinummonkey/gatekeep/pkg/auth"
	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

// PermissionsResponse describes the calling principal
type PermissionsResponse struct {
	ID          string             `json:"id"`
	Role        rbac.Role          `json:"role"`
	TenantID    string             `json:"tenantId"`
	Status      auth.AccountStatus `json:"status"`
	IsAdmin     bool               `json:"isAdmin"`
	Permissions []string           `json:"permissions"`
}

// CheckRequest asks whether the caller holds a permission. Either
// Permission or Resource and Action must be set.
type CheckRequest struct {
	Permission      string `json:"permission,omitempty"`
	Resource        string `json:"resource,omitempty"`
	Action          string `json:"action,omitempty"`
	ResourceOwnerID string `json:"resourceOwnerId,omitempty"`
}

// CheckResponse is the answer to a CheckRequest
type CheckResponse struct {
	Permission rbac.Permission `json:"permission"`
	Allowed    bool            `json:"allowed"`
	// CanEditOwn is only set when a resource owner was supplied
	CanEditOwn *bool `json:"canEditOwn,omitempty"`
}

// RolesResponse lists the built-in roles
type RolesResponse struct {
	Roles []rbac.RoleDefinition `json:"roles"`
}

// RoleChangeRequest is the body of a role change. The guards have already
// validated both roles when the handler runs.
type RoleChangeRequest struct {
	TargetCurrentRole string `json:"targetCurrentRole"`
	NewRole           string `json:"newRole"`
}

// RoleChangeResponse reports an approved role change
type RoleChangeResponse struct {
	UserID       string    `json:"userId"`
	TenantID     string    `json:"tenantId"`
	PreviousRole rbac.Role `json:"previousRole"`
	NewRole      rbac.Role `json:"newRole"`
	Applied      bool      `json:"applied"`
}

// CourseUpdateResponse acknowledges a course update
type CourseUpdateResponse struct {
	CourseID  string `json:"courseId"`
	TenantID  string `json:"tenantId"`
	UpdatedBy string `json:"updatedBy"`
}

// AnalyticsResponse describes the caller's analytics access for a tenant
type AnalyticsResponse struct {
	TenantID      string `json:"tenantId"`
	ExportAllowed bool   `json:"exportAllowed"`
}
