package middleware

import (
	"net/http"

	"github.com/platinummonkey/gatekeep/pkg/auth"
	"github.com/platinummonkey/gatekeep/pkg/httputil"
	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

// TenantField is the default request field carrying the tenant ID
const TenantField = "tenantId"

// RequireTenantMatch confines non-super-admins to their own tenant. The
// requested tenant is read from the route parameter, then the JSON body,
// then the query string; the first one present is used.
func RequireTenantMatch() Guard {
	return RequireTenantMatchField(TenantField)
}

// RequireTenantMatchField is RequireTenantMatch with a different field name
func RequireTenantMatchField(field string) Guard {
	return NewGuard("require-tenant-match", func(r *http.Request, p *auth.Principal) *Denial {
		if p.Role == rbac.RoleSuperAdmin {
			return nil
		}

		requested, _, err := httputil.FirstValue(r, field)
		if err != nil {
			return ErrTenantAccessDenied(p.TenantID, "").withCause(err)
		}
		if requested == "" || p.TenantID == "" || requested != p.TenantID {
			return ErrTenantAccessDenied(p.TenantID, requested)
		}
		return nil
	})
}
