package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

func TestRolesCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out := captureOutput(t)
		require.NoError(t, runRoles(nil))

		output := out.String()
		assert.Contains(t, output, "ROLE")
		for _, role := range rbac.AllRoles() {
			assert.Contains(t, output, string(role))
		}
	})

	t.Run("json", func(t *testing.T) {
		out := captureOutput(t)
		require.NoError(t, runRoles([]string{"-format", "json"}))

		var defs []map[string]interface{}
		require.NoError(t, json.Unmarshal(out.Bytes(), &defs))
		require.Len(t, defs, len(rbac.AllRoles()))
		assert.Equal(t, "super-admin", defs[0]["name"])
		assert.Contains(t, defs[0]["permissions"], "tenants:delete")
	})

	t.Run("bad format", func(t *testing.T) {
		captureOutput(t)
		assert.Error(t, runRoles([]string{"-format", "xml"}))
	})
}

func TestMatrixCommand(t *testing.T) {
	t.Run("all roles as yaml", func(t *testing.T) {
		out := captureOutput(t)
		require.NoError(t, runMatrix(nil))

		var matrix map[string][]string
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &matrix))
		assert.Len(t, matrix, len(rbac.AllRoles()))
		assert.Contains(t, matrix["instructor"], "courses:update")
		assert.NotContains(t, matrix["tenant-admin"], "tenants:create")
	})

	t.Run("single role as json", func(t *testing.T) {
		out := captureOutput(t)
		require.NoError(t, runMatrix([]string{"-role", "mentor", "-format", "json"}))

		var matrix map[string][]string
		require.NoError(t, json.Unmarshal(out.Bytes(), &matrix))
		require.Len(t, matrix, 1)
		assert.Equal(t, rbac.Permissions(rbac.RoleMentor).Strings(), matrix["mentor"])
	})

	t.Run("unknown role", func(t *testing.T) {
		captureOutput(t)
		err := runMatrix([]string{"-role", "owner"})
		assert.ErrorIs(t, err, rbac.ErrUnknownRole)
	})
}
