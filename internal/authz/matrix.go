// Package authz encodes the role/permission matrix governing which caller
// may perform which account action on which target. Every decision is pure:
// no state is read or written here. Anything not explicitly allowed is
// denied.
package authz

import (
	"errors"

	"learnhub-backend/internal/models"
)

type Action string

const (
	ActionDisableUser        Action = "user.disable"
	ActionEnableUser         Action = "user.enable"
	ActionChangeRole         Action = "user.change_role"
	ActionAssignOrganization Action = "user.assign_organization"
	ActionResendInvite       Action = "user.resend_invite"
)

// ErrDenied is the single denial value. Callers that need to distinguish
// "denied" from "not found" (anti-enumeration) do so at the service layer,
// based on the caller's privilege level.
var ErrDenied = errors.New("action not permitted")

// Privileged reports whether the role sees accurate forbidden/not-found
// distinctions on sensitive lookups. Org-scoped and member callers get a
// collapsed not-found instead, so they cannot probe for user existence.
func Privileged(role string) bool {
	return role == models.RoleSuperAdmin || role == models.RoleSystemAdmin
}

// CanManageOrganizations reports whether the role may disable, enable or
// create organizations.
func CanManageOrganizations(role string) bool {
	return role == models.RoleSuperAdmin || role == models.RoleSystemAdmin
}

// CanGrantRole reports whether a caller with callerRole may set newRole on a
// target. Only a super_admin may mint another super_admin.
func CanGrantRole(callerRole, newRole string) bool {
	if !models.ValidRole(newRole) {
		return false
	}
	if newRole == models.RoleSuperAdmin {
		return callerRole == models.RoleSuperAdmin
	}
	return true
}

// Decide answers whether caller may perform action on target. Universal
// constraints run first: self-targeting is forbidden for disable and
// role-change, and a super_admin target is untouchable by everyone for every
// action except a super_admin resending an invite link (its own included).
func Decide(caller, target *models.User, action Action) error {
	if caller == nil || target == nil {
		return ErrDenied
	}

	if caller.ID == target.ID {
		if action == ActionDisableUser || action == ActionChangeRole {
			return ErrDenied
		}
	}

	if target.Role == models.RoleSuperAdmin {
		if action == ActionResendInvite && caller.Role == models.RoleSuperAdmin {
			return nil
		}
		return ErrDenied
	}

	switch caller.Role {
	case models.RoleSuperAdmin:
		if action == ActionAssignOrganization && !assignableRole(target.Role) {
			return ErrDenied
		}
		return nil

	case models.RoleSystemAdmin:
		switch action {
		case ActionDisableUser, ActionEnableUser, ActionChangeRole, ActionResendInvite:
			return nil
		case ActionAssignOrganization:
			if assignableRole(target.Role) {
				return nil
			}
		}
		return ErrDenied

	case models.RoleOrgAdmin:
		// Hard tenant boundary: an organization_admin can never reach
		// outside its own organization, whatever the target's role.
		if caller.OrgID == nil || !target.InOrganization(*caller.OrgID) {
			return ErrDenied
		}
		switch action {
		case ActionDisableUser, ActionEnableUser:
			if target.Role == models.RoleMember {
				return nil
			}
		case ActionResendInvite:
			if target.Role == models.RoleMember || target.Role == models.RoleOrgAdmin {
				return nil
			}
		}
		return ErrDenied
	}

	return ErrDenied
}

// assignableRole limits organization assignment to org-scoped roles.
func assignableRole(role string) bool {
	return role == models.RoleOrgAdmin || role == models.RoleMember
}
