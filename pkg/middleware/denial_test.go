package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

func TestDenial_Status(t *testing.T) {
	tests := []struct {
		denial *Denial
		status int
	}{
		{ErrUnauthenticated(), http.StatusUnauthorized},
		{ErrInsufficientRole([]rbac.Role{rbac.RoleTenantAdmin}, rbac.RoleStudent), http.StatusForbidden},
		{ErrPermissionDenied(rbac.PermUsersCreate, rbac.RoleStudent), http.StatusForbidden},
		{ErrAccessDenied(rbac.ResourceCourses, rbac.ActionDelete, rbac.RoleStudent), http.StatusForbidden},
		{ErrOwnershipDenied(), http.StatusForbidden},
		{ErrAccountInactive("suspended"), http.StatusForbidden},
		{ErrTenantAccessDenied("t1", "t2"), http.StatusForbidden},
		{ErrMissingFields("newRole"), http.StatusBadRequest},
		{ErrInvalidFields("newRole"), http.StatusBadRequest},
		{ErrRoleChangeNotAllowed(rbac.RoleUserManager, rbac.RoleTenantAdmin, rbac.RoleStudent), http.StatusForbidden},
		{&Denial{Kind: "Unknown"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(string(tt.denial.Kind), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.denial.Status())
		})
	}
}

func TestDenial_Body(t *testing.T) {
	d := ErrInsufficientRole([]rbac.Role{rbac.RoleTenantAdmin, rbac.RoleUserManager}, rbac.RoleStudent)
	body := d.Body()

	assert.Equal(t, "Insufficient permissions", body["error"])
	assert.Equal(t, "This action requires one of the roles: tenant-admin, user-manager", body["message"])
	assert.Equal(t, []string{"tenant-admin", "user-manager"}, body["required"])
	assert.Equal(t, "student", body["current"])
}

func TestDenial_BodyFieldsCannotOverride(t *testing.T) {
	d := &Denial{
		Kind:    KindAccessDenied,
		Message: "real message",
		Fields:  map[string]interface{}{"error": "spoofed", "message": "spoofed"},
	}

	body := d.Body()
	assert.Equal(t, "Access denied", body["error"])
	assert.Equal(t, "real message", body["message"])
}

func TestDenial_RequiredShapes(t *testing.T) {
	single := ErrPermissionDenied(rbac.PermUsersCreate, rbac.RoleStudent).Body()
	assert.Equal(t, "users:create", single["required"])
	assert.Equal(t, "student", single["role"])

	multi := ErrAnyPermissionDenied([]rbac.Permission{rbac.PermUsersCreate, rbac.PermUsersInvite}, rbac.RoleStudent).Body()
	assert.Equal(t, []string{"users:create", "users:invite"}, multi["required"])
}

func TestDenial_OwnershipRevealsNothing(t *testing.T) {
	body := ErrOwnershipDenied().withCause(errors.New("owner lookup: connection refused")).Body()

	assert.Len(t, body, 2)
	assert.NotContains(t, fmt.Sprint(body), "connection refused")
}

func TestDenial_TenantMessage(t *testing.T) {
	assert.Equal(t, "A tenant identifier is required", ErrTenantAccessDenied("t1", "").Message)
	assert.Equal(t, "Access to the requested tenant is not allowed", ErrTenantAccessDenied("t1", "t2").Message)
}

func TestDenialKindOf(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("guard failed: %w", ErrOwnershipDenied().withCause(cause))

	kind, ok := DenialKindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindOwnershipDenied, kind)
	assert.True(t, IsDenial(wrapped))
	assert.True(t, errors.Is(wrapped, cause))

	_, ok = DenialKindOf(cause)
	assert.False(t, ok)
	assert.False(t, IsDenial(nil))
}
