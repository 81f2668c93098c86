package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/platinummonkey/gatekeep/pkg/auth"
	"github.com/platinummonkey/gatekeep/pkg/httputil"
	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

// OwnerLookup resolves a resource ID to the ID of the principal that owns it
type OwnerLookup interface {
	LookupOwner(ctx context.Context, resourceID string) (string, error)
}

// OwnerLookupFunc adapts a function to OwnerLookup
type OwnerLookupFunc func(ctx context.Context, resourceID string) (string, error)

// LookupOwner implements OwnerLookup
func (f OwnerLookupFunc) LookupOwner(ctx context.Context, resourceID string) (string, error) {
	return f(ctx, resourceID)
}

var errNoOwnerLookup = errors.New("no owner lookup configured")

// RequireOwnershipOrAdmin reads the resource ID from the route parameter
// param and allows admin roles or the resource owner. Anything that
// prevents a positive ownership match denies.
func RequireOwnershipOrAdmin(param string, lookup OwnerLookup) Guard {
	return NewGuard("require-ownership-or-admin", func(r *http.Request, p *auth.Principal) *Denial {
		if rbac.IsAdminRole(p.Role) {
			return nil
		}
		if lookup == nil {
			return ErrOwnershipDenied().withCause(errNoOwnerLookup)
		}

		resourceID := httputil.PathParam(r, param)
		if resourceID == "" {
			return ErrOwnershipDenied()
		}

		owner, err := lookup.LookupOwner(r.Context(), resourceID)
		if err != nil {
			return ErrOwnershipDenied().withCause(err)
		}
		if owner == "" || p.ID == "" || owner != p.ID {
			return ErrOwnershipDenied()
		}
		return nil
	})
}

// TenantOwnerLookup resolves the owner of a resource inside one tenant. A
// resource that belongs to another tenant must come back as an error.
type TenantOwnerLookup interface {
	LookupTenantOwner(ctx context.Context, tenantID, resourceID string) (string, error)
}

// TenantOwnerLookupFunc adapts a function to TenantOwnerLookup
type TenantOwnerLookupFunc func(ctx context.Context, tenantID, resourceID string) (string, error)

// LookupTenantOwner implements TenantOwnerLookup
func (f TenantOwnerLookupFunc) LookupTenantOwner(ctx context.Context, tenantID, resourceID string) (string, error) {
	return f(ctx, tenantID, resourceID)
}

// RequireTenantOwnershipOrAdmin is RequireOwnershipOrAdmin for resources
// that belong to a tenant. The requested tenant is resolved like
// RequireTenantMatch does. The resource must exist in that tenant for every
// role, super-admin included; only then do admin roles skip the owner match.
func RequireTenantOwnershipOrAdmin(param string, lookup TenantOwnerLookup) Guard {
	return NewGuard("require-tenant-ownership-or-admin", func(r *http.Request, p *auth.Principal) *Denial {
		if lookup == nil {
			return ErrOwnershipDenied().withCause(errNoOwnerLookup)
		}

		resourceID := httputil.PathParam(r, param)
		if resourceID == "" {
			return ErrOwnershipDenied()
		}
		tenantID, _, err := httputil.FirstValue(r, TenantField)
		if err != nil {
			return ErrOwnershipDenied().withCause(err)
		}
		if tenantID == "" {
			return ErrOwnershipDenied()
		}

		owner, err := lookup.LookupTenantOwner(r.Context(), tenantID, resourceID)
		if err != nil {
			return ErrOwnershipDenied().withCause(err)
		}
		if rbac.IsAdminRole(p.Role) {
			return nil
		}
		if owner == "" || p.ID == "" || owner != p.ID {
			return ErrOwnershipDenied()
		}
		return nil
	})
}
