package ownership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

// UserTable names the table and columns holding each user's role
type UserTable struct {
	Table          string
	IDColumn       string
	TenantIDColumn string
	RoleColumn     string
}

// DefaultUserTable returns the users table of the LMS schema
func DefaultUserTable() UserTable {
	return UserTable{Table: "users", IDColumn: "id", TenantIDColumn: "tenant_id", RoleColumn: "role"}
}

// ErrRoleConflict is returned when the user's stored role is not the role
// the change was authorized against
var ErrRoleConflict = errors.New("current role does not match")

// RoleWriter persists role assignments. Callers must have authorized the
// change from current to the new role already; RoleWriter only applies it
// while the stored role still equals current, inside the tenant.
type RoleWriter struct {
	db     *sql.DB
	update string
	exists string
}

// NewRoleWriter builds a writer for the given table layout
func NewRoleWriter(db *sql.DB, driver string, t UserTable) (*RoleWriter, error) {
	for _, ident := range []string{t.Table, t.IDColumn, t.TenantIDColumn, t.RoleColumn} {
		if !identifierPattern.MatchString(ident) {
			return nil, fmt.Errorf("user table: invalid identifier %q", ident)
		}
	}

	p := []string{"?", "?", "?", "?"}
	if driver == DriverPostgres {
		p = []string{"$1", "$2", "$3", "$4"}
	}
	return &RoleWriter{
		db: db,
		update: fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s = %s AND %s = %s AND %s = %s",
			t.Table, t.RoleColumn, p[0], t.IDColumn, p[1], t.TenantIDColumn, p[2], t.RoleColumn, p[3]),
		exists: fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s AND %s = %s",
			t.RoleColumn, t.Table, t.IDColumn, p[0], t.TenantIDColumn, p[1]),
	}, nil
}

// AssignRole changes the role of a user inside a tenant from current to
// role. ErrNotFound means no such user exists in that tenant;
// ErrRoleConflict means the user holds a role other than current.
func (w *RoleWriter) AssignRole(ctx context.Context, tenantID, userID string, current, role rbac.Role) error {
	if !role.IsValid() {
		return fmt.Errorf("%w: %q", rbac.ErrUnknownRole, role)
	}
	if !current.IsValid() {
		return fmt.Errorf("%w: %q", rbac.ErrUnknownRole, current)
	}

	res, err := w.db.ExecContext(ctx, w.update, string(role), userID, tenantID, string(current))
	if err != nil {
		return fmt.Errorf("failed to assign role to %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to assign role to %s: %w", userID, err)
	}
	if n > 0 {
		return nil
	}

	var stored string
	err = w.db.QueryRowContext(ctx, w.exists, userID, tenantID).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: user %s in tenant %s", ErrNotFound, userID, tenantID)
	case err != nil:
		return fmt.Errorf("failed to read role of %s: %w", userID, err)
	}
	return fmt.Errorf("%w: user %s is not %s", ErrRoleConflict, userID, current)
}
