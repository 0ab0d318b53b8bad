package rbac

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolePermissions(t *testing.T) {
	cases := []struct {
		role       string
		permission string
		allowed    bool
	}{
		{RoleEmployer, PermissionCreateJob, true},
		{RoleEmployer, PermissionAcceptProposal, true},
		{RoleEmployer, PermissionApproveJob, true},
		{RoleEmployer, PermissionSubmitProposal, false},
		{RoleEmployer, PermissionCompleteJob, false},
		{RoleFreelancer, PermissionSubmitProposal, true},
		{RoleFreelancer, PermissionCompleteJob, true},
		{RoleFreelancer, PermissionCreateJob, false},
		{RoleFreelancer, PermissionApproveJob, false},
		{"", PermissionCreateJob, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, HasPermission(tc.role, tc.permission), "%s/%s", tc.role, tc.permission)
	}
}

func TestCheckPermission_ReturnsTypedError(t *testing.T) {
	err := CheckPermission(RoleFreelancer, PermissionApproveJob)
	require.Error(t, err)

	var denied *PermissionDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, RoleFreelancer, denied.Role)
	assert.Equal(t, PermissionApproveJob, denied.Permission)
	assert.NoError(t, CheckPermission(RoleEmployer, PermissionApproveJob))
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleEmployer))
	assert.True(t, ValidRole(RoleFreelancer))
	assert.False(t, ValidRole("admin"))
}
