package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gatekeep/pkg/auth"
	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

func TestRequireAuthenticated(t *testing.T) {
	g := RequireAuthenticated()

	d := evaluate(g, newRequest(http.MethodGet, "/", "", nil, nil))
	require.NotNil(t, d)
	assert.Equal(t, KindUnauthenticated, d.Kind)

	assert.Nil(t, evaluate(g, newRequest(http.MethodGet, "/", "", newPrincipal("u1", rbac.RoleStudent, "t1"), nil)))
}

func TestRequireAnyRole(t *testing.T) {
	tests := []struct {
		name    string
		allowed []rbac.Role
		role    rbac.Role
		wantOK  bool
	}{
		{"listed role", []rbac.Role{rbac.RoleTenantAdmin, rbac.RoleUserManager}, rbac.RoleUserManager, true},
		{"unlisted role", []rbac.Role{rbac.RoleTenantAdmin}, rbac.RoleStudent, false},
		{"super-admin gets no implicit pass", []rbac.Role{rbac.RoleTenantAdmin}, rbac.RoleSuperAdmin, false},
		{"empty list", nil, rbac.RoleSuperAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := evaluate(RequireAnyRole(tt.allowed...), newRequest(http.MethodGet, "/", "", newPrincipal("u1", tt.role, "t1"), nil))
			if tt.wantOK {
				assert.Nil(t, d)
				return
			}
			require.NotNil(t, d)
			assert.Equal(t, KindInsufficientRole, d.Kind)
			assert.Equal(t, string(tt.role), d.Fields["current"])
		})
	}
}

func TestRequireAnyRole_DeduplicatesRequired(t *testing.T) {
	d := evaluate(RequireAnyRole(rbac.RoleTenantAdmin, rbac.RoleTenantAdmin),
		newRequest(http.MethodGet, "/", "", newPrincipal("u1", rbac.RoleStudent, "t1"), nil))
	require.NotNil(t, d)
	assert.Equal(t, []string{"tenant-admin"}, d.Fields["required"])
}

func TestRequireAnyRole_Unauthenticated(t *testing.T) {
	d := evaluate(RequireAnyRole(rbac.RoleStudent), newRequest(http.MethodGet, "/", "", nil, nil))
	require.NotNil(t, d)
	assert.Equal(t, KindUnauthenticated, d.Kind)
}

func TestRequireActiveAccount(t *testing.T) {
	tests := []struct {
		status auth.AccountStatus
		wantOK bool
	}{
		{auth.StatusActive, true},
		{auth.StatusInactive, false},
		{auth.StatusSuspended, false},
		{auth.StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			p := newPrincipal("u1", rbac.RoleSuperAdmin, "t1")
			p.Status = tt.status

			d := evaluate(RequireActiveAccount(), newRequest(http.MethodGet, "/", "", p, nil))
			if tt.wantOK {
				assert.Nil(t, d)
				return
			}
			require.NotNil(t, d)
			assert.Equal(t, KindAccountInactive, d.Kind)
			assert.Equal(t, string(tt.status), d.Fields["status"])
		})
	}
}
