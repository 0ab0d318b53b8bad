package rbac

import "fmt"

const (
	PermissionCreateJob      = "job:create"
	PermissionSubmitProposal = "proposal:submit"
	PermissionAcceptProposal = "proposal:accept"
	PermissionCompleteJob    = "job:complete"
	PermissionApproveJob     = "job:approve"
)

const (
	RoleEmployer   = "employer"
	RoleFreelancer = "freelancer"
)

var rolePermissions = map[string][]string{
	RoleEmployer: {
		PermissionCreateJob,
		PermissionAcceptProposal,
		PermissionApproveJob,
	},
	RoleFreelancer: {
		PermissionSubmitProposal,
		PermissionCompleteJob,
	},
}

// ValidRole reports whether role is one a user can register with.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

func HasPermission(role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission returns a *PermissionDeniedError when role lacks permission.
func CheckPermission(role, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{Role: role, Permission: permission}
	}
	return nil
}

type PermissionDeniedError struct {
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("unregistered caller lacks %s", e.Permission)
	}
	return fmt.Sprintf("role %s lacks %s", e.Role, e.Permission)
}
