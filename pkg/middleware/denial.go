package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

// DenialKind classifies why a guard rejected a request
type DenialKind string

const (
	KindUnauthenticated      DenialKind = "Unauthenticated"
	KindInsufficientRole     DenialKind = "InsufficientRole"
	KindPermissionDenied     DenialKind = "PermissionDenied"
	KindAccessDenied         DenialKind = "AccessDenied"
	KindOwnershipDenied      DenialKind = "OwnershipDenied"
	KindAccountInactive      DenialKind = "AccountInactive"
	KindTenantAccessDenied   DenialKind = "TenantAccessDenied"
	KindBadRequest           DenialKind = "BadRequest"
	KindRoleChangeNotAllowed DenialKind = "RoleChangeNotAllowed"
)

// httpStatusMap maps denial kinds to HTTP status codes
var httpStatusMap = map[DenialKind]int{
	KindUnauthenticated:      http.StatusUnauthorized, // 401
	KindInsufficientRole:     http.StatusForbidden,    // 403
	KindPermissionDenied:     http.StatusForbidden,    // 403
	KindAccessDenied:         http.StatusForbidden,    // 403
	KindOwnershipDenied:      http.StatusForbidden,    // 403
	KindAccountInactive:      http.StatusForbidden,    // 403
	KindTenantAccessDenied:   http.StatusForbidden,    // 403
	KindBadRequest:           http.StatusBadRequest,   // 400
	KindRoleChangeNotAllowed: http.StatusForbidden,    // 403
}

// errorTitles is the "error" value of each response body
var errorTitles = map[DenialKind]string{
	KindUnauthenticated:      "Authentication required",
	KindInsufficientRole:     "Insufficient permissions",
	KindPermissionDenied:     "Permission denied",
	KindAccessDenied:         "Access denied",
	KindOwnershipDenied:      "Ownership required",
	KindAccountInactive:      "Account inactive",
	KindTenantAccessDenied:   "Tenant access denied",
	KindBadRequest:           "Bad request",
	KindRoleChangeNotAllowed: "Role change not allowed",
}

// Denial is a terminal authorization outcome. It implements error so guard
// results can travel through ordinary error plumbing.
type Denial struct {
	Kind    DenialKind
	Message string
	Fields  map[string]interface{}

	// cause is logged but never written to the response
	cause error
}

// Error implements the error interface
func (d *Denial) Error() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Unwrap exposes the internal cause, if any
func (d *Denial) Unwrap() error {
	return d.cause
}

// Status returns the HTTP status code for this denial
func (d *Denial) Status() int {
	if status, ok := httpStatusMap[d.Kind]; ok {
		return status
	}
	return http.StatusForbidden
}

// Title returns the short error string used in the response body
func (d *Denial) Title() string {
	if title, ok := errorTitles[d.Kind]; ok {
		return title
	}
	return errorTitles[KindAccessDenied]
}

// Body returns the JSON response body. Fields never override error or message.
func (d *Denial) Body() map[string]interface{} {
	body := make(map[string]interface{}, len(d.Fields)+2)
	for k, v := range d.Fields {
		body[k] = v
	}
	body["error"] = d.Title()
	body["message"] = d.Message
	return body
}

func (d *Denial) withCause(err error) *Denial {
	d.cause = err
	return d
}

// DenialKindOf extracts the denial kind from an error.
// Returns false if the error is not a Denial.
func DenialKindOf(err error) (DenialKind, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d.Kind, true
	}
	return "", false
}

// IsDenial returns true if the error is or wraps a Denial
func IsDenial(err error) bool {
	_, ok := DenialKindOf(err)
	return ok
}

func newDenial(kind DenialKind, message string, fields map[string]interface{}) *Denial {
	return &Denial{Kind: kind, Message: message, Fields: fields}
}

// ErrUnauthenticated creates a denial for a request without a principal
func ErrUnauthenticated() *Denial {
	return newDenial(KindUnauthenticated, "A valid session is required to access this resource", nil)
}

// ErrInsufficientRole creates a denial listing the accepted roles
func ErrInsufficientRole(required []rbac.Role, current rbac.Role) *Denial {
	names := make([]string, len(required))
	for i, r := range required {
		names[i] = string(r)
	}
	return newDenial(KindInsufficientRole,
		fmt.Sprintf("This action requires one of the roles: %s", strings.Join(names, ", ")),
		map[string]interface{}{
			"required": names,
			"current":  string(current),
		})
}

// ErrPermissionDenied creates a denial for a single missing permission
func ErrPermissionDenied(required rbac.Permission, role rbac.Role) *Denial {
	return newDenial(KindPermissionDenied,
		fmt.Sprintf("Missing required permission %s", required),
		map[string]interface{}{
			"required": string(required),
			"role":     string(role),
		})
}

// ErrAnyPermissionDenied creates a denial when none of the alternatives is held
func ErrAnyPermissionDenied(required []rbac.Permission, role rbac.Role) *Denial {
	names := make([]string, len(required))
	for i, p := range required {
		names[i] = string(p)
	}
	return newDenial(KindPermissionDenied,
		fmt.Sprintf("Requires any of the permissions: %s", strings.Join(names, ", ")),
		map[string]interface{}{
			"required": names,
			"role":     string(role),
		})
}

// ErrAccessDenied creates a denial for a resource/action pair
func ErrAccessDenied(resource rbac.Resource, action rbac.Action, role rbac.Role) *Denial {
	return newDenial(KindAccessDenied,
		fmt.Sprintf("Role %s cannot %s %s", role, action, resource),
		map[string]interface{}{
			"resource": string(resource),
			"action":   string(action),
			"role":     string(role),
		})
}

// ErrOwnershipDenied creates a denial that deliberately names no owner
func ErrOwnershipDenied() *Denial {
	return newDenial(KindOwnershipDenied, "You can only modify resources you own", nil)
}

// ErrAccountInactive creates a denial for a non-active account
func ErrAccountInactive(status string) *Denial {
	return newDenial(KindAccountInactive,
		fmt.Sprintf("Account status %q does not allow this action", status),
		map[string]interface{}{
			"status": status,
		})
}

// ErrTenantAccessDenied creates a denial for a cross-tenant request
func ErrTenantAccessDenied(userTenant, requestedTenant string) *Denial {
	message := "Access to the requested tenant is not allowed"
	if requestedTenant == "" {
		message = "A tenant identifier is required"
	}
	return newDenial(KindTenantAccessDenied, message,
		map[string]interface{}{
			"userTenant":      userTenant,
			"requestedTenant": requestedTenant,
		})
}

// ErrMissingFields creates a BadRequest naming the missing fields
func ErrMissingFields(missing ...string) *Denial {
	return newDenial(KindBadRequest,
		fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")),
		map[string]interface{}{
			"missing": missing,
		})
}

// ErrInvalidFields creates a BadRequest naming fields with unusable values
func ErrInvalidFields(invalid ...string) *Denial {
	return newDenial(KindBadRequest,
		fmt.Sprintf("Invalid values for fields: %s", strings.Join(invalid, ", ")),
		map[string]interface{}{
			"invalid": invalid,
		})
}

// ErrRoleChangeNotAllowed creates a denial for a rank violation
func ErrRoleChangeNotAllowed(current, target, newRole rbac.Role) *Denial {
	return newDenial(KindRoleChangeNotAllowed,
		fmt.Sprintf("Role %s cannot change a %s to %s", current, target, newRole),
		map[string]interface{}{
			"currentUserRole": string(current),
			"targetRole":      string(target),
			"newRole":         string(newRole),
		})
}
