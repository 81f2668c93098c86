package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/gatekeep/pkg/contextkeys"
	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

var (
	// ErrSessionNotFound indicates the token does not map to a live session
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidPrincipal indicates a stored principal failed validation
	ErrInvalidPrincipal = errors.New("invalid principal")
)

// AccountStatus is the lifecycle state of a user account
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInactive  AccountStatus = "inactive"
	StatusSuspended AccountStatus = "suspended"
	StatusPending   AccountStatus = "pending"
)

// IsValid reports whether s is a known account status
func (s AccountStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended, StatusPending:
		return true
	default:
		return false
	}
}

// ParseAccountStatus validates an untrusted status string (case-insensitive)
func ParseAccountStatus(s string) (AccountStatus, error) {
	status := AccountStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("unknown account status: %q", s)
	}
	return status, nil
}

// Principal is the authenticated actor of a request. It is built once per
// request by the session layer and treated as read-only afterwards.
type Principal struct {
	ID                string             `json:"id"`
	Role              rbac.Role          `json:"role"`
	TenantID          string             `json:"tenantId"`
	Status            AccountStatus      `json:"status"`
	CustomPermissions rbac.PermissionSet `json:"customPermissions"`
	Email             string             `json:"email,omitempty"`
}

// IsActive reports whether the account may act
func (p *Principal) IsActive() bool {
	return p != nil && p.Status == StatusActive
}

// HasPermission resolves a permission against the principal's role and
// custom permissions. A nil principal has no permissions.
func (p *Principal) HasPermission(perm rbac.Permission) bool {
	if p == nil {
		return false
	}
	return rbac.HasPermission(p.Role, perm, p.CustomPermissions)
}

// EffectivePermissions returns the principal's full permission set
func (p *Principal) EffectivePermissions() rbac.PermissionSet {
	if p == nil {
		return rbac.PermissionSet{}
	}
	return rbac.EffectivePermissions(p.Role, p.CustomPermissions)
}

// WithPrincipal attaches the principal to the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return contextkeys.WithPrincipal(ctx, p)
}

// PrincipalFromContext returns the attached principal, or nil
func PrincipalFromContext(ctx context.Context) *Principal {
	p, ok := ctx.Value(contextkeys.PrincipalKey).(*Principal)
	if !ok {
		return nil
	}
	return p
}
