// Package cli provides the gatekeep command-line interface.
//
// # Overview
//
// The CLI answers authorization questions offline from the built-in role
// matrix, and can ask a running server what a session token is allowed to do.
// Commands that answer "no" return ErrDenied so shell scripts can branch on
// the exit status.
//
// # Commands
//
// roles: List the built-in roles with rank and admin tier
//
//	gatekeep roles -format yaml
//
// matrix: Print role permissions
//
//	gatekeep matrix -role instructor -format json
//
// check: Resolve a permission for a role, optionally with custom
// permissions and the ownership rule
//
//	gatekeep check -role student -permission analytics:read -custom analytics:read
//	gatekeep check -role instructor -resource courses -action update -owner u1 -user u2
//
// can-change: Apply the role hierarchy to a proposed reassignment
//
//	gatekeep can-change -actor user-manager -target student -new mentor
//
// whoami: Fetch the effective permissions of a session from a server
//
//	GATEKEEP_TOKEN=... gatekeep whoami -server https://authz.internal
package cli
