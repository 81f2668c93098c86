package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/gatekeep/pkg/rbac"
)

func TestCheckCommand(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantErr    error
		wantOutput []string
	}{
		{
			name:       "granted by role",
			args:       []string{"-role", "instructor", "-permission", "courses:update"},
			wantOutput: []string{"instructor courses:update: allowed"},
		},
		{
			name:       "not granted",
			args:       []string{"-role", "student", "-permission", "courses:update"},
			wantErr:    ErrDenied,
			wantOutput: []string{"denied"},
		},
		{
			name:       "resource and action",
			args:       []string{"-role", "analytics-viewer", "-resource", "analytics", "-action", "export"},
			wantOutput: []string{"analytics:export: allowed"},
		},
		{
			name:       "custom permission",
			args:       []string{"-role", "student", "-permission", "analytics:read", "-custom", "analytics:read,bogus:perm"},
			wantOutput: []string{"allowed", `ignoring unknown custom permission "bogus:perm"`},
		},
		{
			name:       "owner matches",
			args:       []string{"-role", "instructor", "-permission", "courses:update", "-owner", "u1", "-user", "u1"},
			wantOutput: []string{"edit resource owned by u1: allowed"},
		},
		{
			name:       "owner differs",
			args:       []string{"-role", "instructor", "-permission", "courses:update", "-owner", "u1", "-user", "u2"},
			wantErr:    ErrDenied,
			wantOutput: []string{"edit resource owned by u1: denied"},
		},
		{
			name:    "unknown role",
			args:    []string{"-role", "owner", "-permission", "courses:read"},
			wantErr: rbac.ErrUnknownRole,
		},
		{
			name:    "unknown permission",
			args:    []string{"-role", "student", "-permission", "courses:fly"},
			wantErr: rbac.ErrUnknownPermission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t)
			err := runCheck(tt.args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			for _, want := range tt.wantOutput {
				assert.Contains(t, out.String(), want)
			}
		})
	}

	t.Run("nothing to check", func(t *testing.T) {
		captureOutput(t)
		err := runCheck([]string{"-role", "student"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrDenied)
	})
}

func TestCanChangeCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"admin promotes student", []string{"-actor", "tenant-admin", "-target", "student", "-new", "instructor"}, nil},
		{"peer manager", []string{"-actor", "user-manager", "-target", "content-manager", "-new", "student"}, ErrDenied},
		{"above own rank", []string{"-actor", "instructor", "-target", "student", "-new", "tenant-admin"}, ErrDenied},
		{"unknown role", []string{"-actor", "root", "-target", "student", "-new", "mentor"}, rbac.ErrUnknownRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t)
			err := runCanChange(tt.args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out.String(), "tenant-admin (rank 7) changing student (rank 1) to instructor (rank 4): allowed")
		})
	}
}
