package middleware

import (
	"net/http"

	"github.com/platinummonkey/gatekeep/pkg/auth"
	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

// RequireAuthenticated denies requests without a principal
func RequireAuthenticated() Guard {
	return NewGuard("require-authenticated", nil)
}

// RequireAnyRole allows principals whose role is in the list. An empty
// list allows nobody.
func RequireAnyRole(roles ...rbac.Role) Guard {
	allowed := make(map[rbac.Role]struct{}, len(roles))
	required := make([]rbac.Role, 0, len(roles))
	for _, r := range roles {
		if _, dup := allowed[r]; dup {
			continue
		}
		allowed[r] = struct{}{}
		required = append(required, r)
	}

	return NewGuard("require-any-role", func(r *http.Request, p *auth.Principal) *Denial {
		if _, ok := allowed[p.Role]; ok {
			return nil
		}
		return ErrInsufficientRole(required, p.Role)
	})
}

// RequireActiveAccount denies principals whose status is not active
func RequireActiveAccount() Guard {
	return NewGuard("require-active-account", func(r *http.Request, p *auth.Principal) *Denial {
		if p.IsActive() {
			return nil
		}
		return ErrAccountInactive(string(p.Status))
	})
}
