package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

func TestRequireTenantMatch(t *testing.T) {
	tests := []struct {
		name   string
		role   rbac.Role
		tenant string
		target string
		body   string
		vars   map[string]string
		wantOK bool
	}{
		{"route match", rbac.RoleTenantAdmin, "t1", "/", "", map[string]string{"tenantId": "t1"}, true},
		{"route mismatch", rbac.RoleTenantAdmin, "t1", "/", "", map[string]string{"tenantId": "t2"}, false},
		{"body match", rbac.RoleInstructor, "t1", "/", `{"tenantId":"t1"}`, nil, true},
		{"body mismatch", rbac.RoleInstructor, "t1", "/", `{"tenantId":"t2"}`, nil, false},
		{"query match", rbac.RoleStudent, "t1", "/?tenantId=t1", "", nil, true},
		{"query mismatch", rbac.RoleStudent, "t1", "/?tenantId=t2", "", nil, false},
		{"route wins over body", rbac.RoleStudent, "t1", "/", `{"tenantId":"t2"}`, map[string]string{"tenantId": "t1"}, true},
		{"body wins over query", rbac.RoleStudent, "t1", "/?tenantId=t1", `{"tenantId":"t2"}`, nil, false},
		{"empty body value falls through to query", rbac.RoleStudent, "t1", "/?tenantId=t1", `{"tenantId":""}`, nil, true},
		{"missing everywhere", rbac.RoleTenantAdmin, "t1", "/", "", nil, false},
		{"principal without tenant", rbac.RoleTenantAdmin, "", "/", "", map[string]string{"tenantId": "t1"}, false},
		{"super-admin any tenant", rbac.RoleSuperAdmin, "t1", "/", "", map[string]string{"tenantId": "t9"}, true},
		{"super-admin missing tenant", rbac.RoleSuperAdmin, "", "/", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodPost, tt.target, tt.body, newPrincipal("u1", tt.role, tt.tenant), tt.vars)
			d := evaluate(RequireTenantMatch(), req)
			if tt.wantOK {
				assert.Nil(t, d)
				return
			}
			require.NotNil(t, d)
			assert.Equal(t, KindTenantAccessDenied, d.Kind)
			assert.Equal(t, tt.tenant, d.Fields["userTenant"])
		})
	}
}

func TestRequireTenantMatch_BodyStillReadable(t *testing.T) {
	req := newRequest(http.MethodPost, "/", `{"tenantId":"t1","name":"x"}`, newPrincipal("u1", rbac.RoleTenantAdmin, "t1"), nil)

	var body string
	h := Chain(RequireTenantMatch())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		body = string(buf[:n])
	}))
	h.ServeHTTP(nopWriter{}, req)

	assert.Equal(t, `{"tenantId":"t1","name":"x"}`, body)
}

func TestRequireTenantMatchField(t *testing.T) {
	req := newRequest(http.MethodGet, "/?org=t1", "", newPrincipal("u1", rbac.RoleStudent, "t1"), nil)
	assert.Nil(t, evaluate(RequireTenantMatchField("org"), req))

	req = newRequest(http.MethodGet, "/?tenantId=t1", "", newPrincipal("u1", rbac.RoleStudent, "t1"), nil)
	d := evaluate(RequireTenantMatchField("org"), req)
	require.NotNil(t, d)
	assert.Equal(t, "", d.Fields["requestedTenant"])
}
