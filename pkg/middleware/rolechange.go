package middleware

import (
	"net/http"

	"github.com/platinummonkey/gatekeep/pkg/auth"
	"github.com/platinummonkey/gatekeep/pkg/httputil"
	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

// Body fields read by RequireRoleChangePermission
const (
	TargetCurrentRoleField = "targetCurrentRole"
	NewRoleField           = "newRole"
)

// RequireRoleChangePermission checks the actor may move the target from
// targetCurrentRole to newRole, both read from the JSON body.
func RequireRoleChangePermission() Guard {
	return NewGuard("require-role-change-permission", func(r *http.Request, p *auth.Principal) *Denial {
		var values [2]string
		var missing []string
		for i, name := range []string{TargetCurrentRoleField, NewRoleField} {
			v, ok, err := httputil.BodyField(r, name)
			if err != nil {
				return ErrMissingFields(TargetCurrentRoleField, NewRoleField).withCause(err)
			}
			if !ok {
				missing = append(missing, name)
				continue
			}
			values[i] = v
		}
		if len(missing) > 0 {
			return ErrMissingFields(missing...)
		}

		var invalid []string
		target, err := rbac.ParseRole(values[0])
		if err != nil {
			invalid = append(invalid, TargetCurrentRoleField)
		}
		newRole, err := rbac.ParseRole(values[1])
		if err != nil {
			invalid = append(invalid, NewRoleField)
		}
		if len(invalid) > 0 {
			return ErrInvalidFields(invalid...)
		}

		if !rbac.CanChangeRole(p.Role, target, newRole) {
			return ErrRoleChangeNotAllowed(p.Role, target, newRole)
		}
		return nil
	})
}
