package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gatekeep/pkg/audit"
	"github.com/platinummonkey/gatekeep/pkg/ownership"
	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

func TestGetMyPermissions(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("student", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/v1/me/permissions", "student", nil)
		require.Equal(t, http.StatusOK, w.Code)

		body := decode(t, w)
		assert.Equal(t, "u-student", body["id"])
		assert.Equal(t, "student", body["role"])
		assert.Equal(t, "t1", body["tenantId"])
		assert.Equal(t, false, body["isAdmin"])
		assert.Contains(t, body["permissions"], "assignments:submit")
		assert.NotContains(t, body["permissions"], "courses:update")
	})

	t.Run("custom permissions are merged", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/v1/me/permissions", "custom", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, decode(t, w)["permissions"], "analytics:read")
	})

	t.Run("admin", func(t *testing.T) {
		w := doRequest(t, s, http.MethodGet, "/v1/me/permissions", "admin", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, true, body["isAdmin"])
		assert.NotContains(t, body["permissions"], "tenants:create")
	})
}

func TestCheckPermission(t *testing.T) {
	s, auditor := newTestServer(t)

	tests := []struct {
		name        string
		token       string
		body        interface{}
		want        int
		wantAllowed bool
		wantEdit    interface{}
	}{
		{"held permission", "instructor", CheckRequest{Permission: "courses:update"}, http.StatusOK, true, nil},
		{"missing permission", "student", CheckRequest{Permission: "courses:update"}, http.StatusOK, false, nil},
		{"resource and action", "analyst", CheckRequest{Resource: "analytics", Action: "export"}, http.StatusOK, true, nil},
		{"own resource", "instructor", CheckRequest{Permission: "courses:update", ResourceOwnerID: "u-inst"}, http.StatusOK, true, true},
		{"foreign resource", "instructor", CheckRequest{Permission: "courses:update", ResourceOwnerID: "u-x"}, http.StatusOK, true, false},
		{"bypass role", "content", CheckRequest{Permission: "courses:update", ResourceOwnerID: "u-x"}, http.StatusOK, true, true},
		{"unknown permission", "admin", CheckRequest{Permission: "courses:fly"}, http.StatusBadRequest, false, nil},
		{"wrong case", "admin", CheckRequest{Permission: "Courses:Read"}, http.StatusBadRequest, false, nil},
		{"nothing to check", "admin", CheckRequest{Resource: "courses"}, http.StatusBadRequest, false, nil},
		{"malformed body", "admin", "not an object", http.StatusBadRequest, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPost, "/v1/authz/check", tt.token, tt.body)
			require.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want != http.StatusOK {
				return
			}
			body := decode(t, w)
			assert.Equal(t, tt.wantAllowed, body["allowed"])
			assert.Equal(t, tt.wantEdit, body["canEditOwn"])
		})
	}

	events := auditor.byType(audit.EventTypeAuthzPermissionCheck)
	require.Len(t, events, 6)
	assert.Equal(t, audit.EventStatusSuccess, events[0].Status)
	assert.Equal(t, audit.EventStatusDenied, events[1].Status)
	assert.Equal(t, "courses:update", events[1].Metadata["permission"])
}

func TestListRoles(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/v1/roles", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)

	roles, ok := decode(t, w)["roles"].([]interface{})
	require.True(t, ok)
	require.Len(t, roles, len(rbac.AllRoles()))

	first := roles[0].(map[string]interface{})
	assert.Equal(t, "super-admin", first["name"])
	assert.Equal(t, true, first["isAdmin"])
	assert.EqualValues(t, 8, first["rank"])
}

func TestChangeRole(t *testing.T) {
	path := "/v1/tenants/t1/users/u42/role"

	t.Run("approved without assigner", func(t *testing.T) {
		s, auditor := newTestServer(t)
		w := doRequest(t, s, http.MethodPut, path, "admin", RoleChangeRequest{
			TargetCurrentRole: "student", NewRole: "instructor",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		body := decode(t, w)
		assert.Equal(t, "u42", body["userId"])
		assert.Equal(t, "t1", body["tenantId"])
		assert.Equal(t, "student", body["previousRole"])
		assert.Equal(t, "instructor", body["newRole"])
		assert.Equal(t, false, body["applied"])

		events := auditor.byType(audit.EventTypeAuthzRoleChange)
		require.Len(t, events, 1)
		assert.Equal(t, "u-admin", events[0].PrincipalID)
		assert.Equal(t, "u42", events[0].ResourceID)
		assert.Equal(t, "instructor", events[0].Metadata["new_role"])
	})

	t.Run("assigner is called", func(t *testing.T) {
		var gotTenant, gotUser string
		var gotCurrent, gotRole rbac.Role
		s, _ := newTestServer(t, func(o *Options) {
			o.Roles = RoleAssignerFunc(func(ctx context.Context, tenantID, userID string, current, role rbac.Role) error {
				gotTenant, gotUser, gotCurrent, gotRole = tenantID, userID, current, role
				return nil
			})
		})
		w := doRequest(t, s, http.MethodPut, path, "users", RoleChangeRequest{
			TargetCurrentRole: "student", NewRole: "mentor",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, true, decode(t, w)["applied"])
		assert.Equal(t, "t1", gotTenant)
		assert.Equal(t, "u42", gotUser)
		assert.Equal(t, rbac.RoleStudent, gotCurrent)
		assert.Equal(t, rbac.RoleMentor, gotRole)
	})

	t.Run("assigner failure is not leaked", func(t *testing.T) {
		s, _ := newTestServer(t, func(o *Options) {
			o.Roles = RoleAssignerFunc(func(ctx context.Context, tenantID, userID string, current, role rbac.Role) error {
				return errors.New("pq: deadlock detected")
			})
		})
		w := doRequest(t, s, http.MethodPut, path, "admin", RoleChangeRequest{
			TargetCurrentRole: "student", NewRole: "mentor",
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "deadlock")
	})

	t.Run("unknown user", func(t *testing.T) {
		s, _ := newTestServer(t, func(o *Options) {
			o.Roles = RoleAssignerFunc(func(ctx context.Context, tenantID, userID string, current, role rbac.Role) error {
				return fmt.Errorf("%w: user %s", ownership.ErrNotFound, userID)
			})
		})
		w := doRequest(t, s, http.MethodPut, path, "admin", RoleChangeRequest{
			TargetCurrentRole: "student", NewRole: "mentor",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("stored role differs from the stated one", func(t *testing.T) {
		s, auditor := newTestServer(t, func(o *Options) {
			o.Roles = RoleAssignerFunc(func(ctx context.Context, tenantID, userID string, current, role rbac.Role) error {
				return fmt.Errorf("%w: user %s", ownership.ErrRoleConflict, userID)
			})
		})
		w := doRequest(t, s, http.MethodPut, path, "admin", RoleChangeRequest{
			TargetCurrentRole: "student", NewRole: "student",
		})
		assert.Equal(t, http.StatusConflict, w.Code)

		events := auditor.byType(audit.EventTypeAuthzRoleChange)
		require.Len(t, events, 1)
		assert.Equal(t, audit.EventStatusDenied, events[0].Status)
		assert.Equal(t, false, events[0].Metadata["applied"])
	})

	tests := []struct {
		name      string
		token     string
		path      string
		body      interface{}
		want      int
		wantError string
	}{
		{"peer cannot be changed", "users", path, RoleChangeRequest{TargetCurrentRole: "content-manager", NewRole: "student"}, http.StatusForbidden, "Role change not allowed"},
		{"cannot promote above self", "users", path, RoleChangeRequest{TargetCurrentRole: "student", NewRole: "tenant-admin"}, http.StatusForbidden, "Role change not allowed"},
		{"missing new role", "admin", path, map[string]string{"targetCurrentRole": "student"}, http.StatusBadRequest, "Bad request"},
		{"unknown role", "admin", path, RoleChangeRequest{TargetCurrentRole: "student", NewRole: "owner"}, http.StatusBadRequest, "Bad request"},
		{"no roles:assign", "instructor", path, RoleChangeRequest{TargetCurrentRole: "student", NewRole: "mentor"}, http.StatusForbidden, "Permission denied"},
		{"other tenant", "other", path, RoleChangeRequest{TargetCurrentRole: "student", NewRole: "mentor"}, http.StatusForbidden, "Tenant access denied"},
		{"super admin any tenant", "super", "/v1/tenants/t7/users/u1/role", RoleChangeRequest{TargetCurrentRole: "tenant-admin", NewRole: "tenant-admin"}, http.StatusOK, ""},
	}

	s, _ := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPut, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode(t, w)["error"])
			}
		})
	}
}

func TestUpdateCourse(t *testing.T) {
	s, _ := newTestServer(t)
	w := doRequest(t, s, http.MethodPatch, "/v1/tenants/t1/courses/c1", "instructor", map[string]string{"title": "Go"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "c1", body["courseId"])
	assert.Equal(t, "t1", body["tenantId"])
	assert.Equal(t, "u-inst", body["updatedBy"])
}

func TestGetAnalytics(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		token      string
		wantExport bool
	}{
		{"analyst", true},
		{"instructor", false},
		{"custom", false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			w := doRequest(t, s, http.MethodGet, "/v1/tenants/t1/analytics", tt.token, nil)
			require.Equal(t, http.StatusOK, w.Code)
			body := decode(t, w)
			assert.Equal(t, "t1", body["tenantId"])
			assert.Equal(t, tt.wantExport, body["exportAllowed"])
		})
	}
}

func TestChangeRole_StoredRoleIsAuthoritative(t *testing.T) {
	ctx := context.Background()
	db, err := ownership.Open(ctx, ownership.ConnectionConfig{Driver: ownership.DriverSQLite, DSN: ":memory:", MaxConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.ExecContext(ctx, `
		CREATE TABLE users (id TEXT PRIMARY KEY, tenant_id TEXT, role TEXT);
		INSERT INTO users VALUES ('u42', 't1', 'tenant-admin'), ('u43', 't1', 'student');
	`)
	require.NoError(t, err)

	writer, err := ownership.NewRoleWriter(db, ownership.DriverSQLite, ownership.DefaultUserTable())
	require.NoError(t, err)
	s, _ := newTestServer(t, func(o *Options) { o.Roles = writer })

	roleOf := func(id string) string {
		var role string
		require.NoError(t, db.QueryRowContext(ctx, "SELECT role FROM users WHERE id = ?", id).Scan(&role))
		return role
	}

	t.Run("peer admin described as a student", func(t *testing.T) {
		w := doRequest(t, s, http.MethodPut, "/v1/tenants/t1/users/u42/role", "admin", RoleChangeRequest{
			TargetCurrentRole: "student", NewRole: "student",
		})
		assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
		assert.NotContains(t, w.Body.String(), "tenant-admin")
		assert.Equal(t, "tenant-admin", roleOf("u42"))
	})

	t.Run("accurate current role", func(t *testing.T) {
		w := doRequest(t, s, http.MethodPut, "/v1/tenants/t1/users/u43/role", "admin", RoleChangeRequest{
			TargetCurrentRole: "student", NewRole: "instructor",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, true, decode(t, w)["applied"])
		assert.Equal(t, "instructor", roleOf("u43"))
	})

	t.Run("user of another tenant", func(t *testing.T) {
		w := doRequest(t, s, http.MethodPut, "/v1/tenants/t2/users/u43/role", "super", RoleChangeRequest{
			TargetCurrentRole: "instructor", NewRole: "mentor",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "instructor", roleOf("u43"))
	})
}
