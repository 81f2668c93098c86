package rbac

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownRole is returned when a string does not name one of the built-in roles
	ErrUnknownRole = errors.New("unknown role")
	// ErrUnknownPermission is returned when a string is not in the permission catalog
	ErrUnknownPermission = errors.New("unknown permission")
)

// Role is one of the fixed identities a principal can hold
type Role string

// Built-in roles
const (
	RoleSuperAdmin      Role = "super-admin"
	RoleTenantAdmin     Role = "tenant-admin"
	RoleContentManager  Role = "content-manager"
	RoleUserManager     Role = "user-manager"
	RoleAnalyticsViewer Role = "analytics-viewer"
	RoleInstructor      Role = "instructor"
	RoleMentor          Role = "mentor"
	RoleStudent         Role = "student"
)

var allRoles = [...]Role{
	RoleSuperAdmin,
	RoleTenantAdmin,
	RoleContentManager,
	RoleUserManager,
	RoleAnalyticsViewer,
	RoleInstructor,
	RoleMentor,
	RoleStudent,
}

// AllRoles returns every built-in role, highest rank first
func AllRoles() []Role {
	roles := make([]Role, len(allRoles))
	copy(roles, allRoles[:])
	return roles
}

// IsValid reports whether r is one of the built-in roles
func (r Role) IsValid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// String returns the role identifier
func (r Role) String() string {
	return string(r)
}

// ParseRole validates an untrusted role name. Matching is exact apart from
// surrounding whitespace; unknown names are an error, never a default role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Resource is the left half of a permission token
type Resource string

// Action is the right half of a permission token
type Action string

// Permission is a "resource:action" token drawn from the catalog
type Permission string

// NewPermission joins a resource and action into a permission token
func NewPermission(resource Resource, action Action) Permission {
	return Permission(string(resource) + ":" + string(action))
}

// Resource returns the part before the first colon
func (p Permission) Resource() Resource {
	res, _, _ := strings.Cut(string(p), ":")
	return Resource(res)
}

// Action returns the part after the first colon
func (p Permission) Action() Action {
	_, act, _ := strings.Cut(string(p), ":")
	return Action(act)
}

// String returns the permission token
func (p Permission) String() string {
	return string(p)
}

// ParsePermission validates an untrusted permission string against the catalog.
// No case folding or trimming is applied.
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if !IsKnownPermission(p) {
		return "", fmt.Errorf("%w: %q", ErrUnknownPermission, s)
	}
	return p, nil
}

// PermissionSet is an immutable set of permissions. The zero value is the
// empty set and is ready to use.
type PermissionSet struct {
	m map[Permission]struct{}
}

// NewPermissionSet builds a set from the given permissions
func NewPermissionSet(perms ...Permission) PermissionSet {
	if len(perms) == 0 {
		return PermissionSet{}
	}
	m := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		m[p] = struct{}{}
	}
	return PermissionSet{m: m}
}

// Has reports whether p is a member of the set
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s.m[p]
	return ok
}

// Len returns the number of permissions in the set
func (s PermissionSet) Len() int {
	return len(s.m)
}

// IsEmpty reports whether the set has no members
func (s PermissionSet) IsEmpty() bool {
	return len(s.m) == 0
}

// Slice returns the members sorted lexically. The result is a fresh copy.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s.m))
	for p := range s.m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted members as plain strings
func (s PermissionSet) Strings() []string {
	perms := s.Slice()
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

// Union returns a new set holding the members of s and other
func (s PermissionSet) Union(other PermissionSet) PermissionSet {
	if other.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return other
	}
	m := make(map[Permission]struct{}, len(s.m)+len(other.m))
	for p := range s.m {
		m[p] = struct{}{}
	}
	for p := range other.m {
		m[p] = struct{}{}
	}
	return PermissionSet{m: m}
}

// IsSubsetOf reports whether every member of s is also in other
func (s PermissionSet) IsSubsetOf(other PermissionSet) bool {
	for p := range s.m {
		if !other.Has(p) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted array
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON decodes an array of permission strings. Members are not
// validated here; boundaries that accept untrusted input use ParsePermissionSet.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	perms := make([]Permission, len(raw))
	for i, r := range raw {
		perms[i] = Permission(r)
	}
	*s = NewPermissionSet(perms...)
	return nil
}

// ParsePermissionSet validates each entry against the catalog. Valid entries
// are returned as a set; invalid ones are returned separately so the caller can
// log them. Dropping an unknown entry only ever removes privileges.
func ParsePermissionSet(raw []string) (PermissionSet, []string) {
	valid := make([]Permission, 0, len(raw))
	var rejected []string
	for _, r := range raw {
		p, err := ParsePermission(r)
		if err != nil {
			rejected = append(rejected, r)
			continue
		}
		valid = append(valid, p)
	}
	return NewPermissionSet(valid...), rejected
}
