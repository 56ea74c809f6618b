package accounts

import "learnhub-backend/internal/models"

// StateChange is the (is_active, disabled_by_org) pair a user must carry
// after an organization-level transition. Applied reports whether anything
// changes at all; untouched users keep their existing pair and reason.
type StateChange struct {
	IsActive      bool
	DisabledByOrg bool
}

// ReconcileOnOrgDisable computes the cascade for a single user when their
// organization is disabled. Every currently-active user becomes inactive
// with the org-caused marker; users already inactive keep whatever reason
// they had, manual or org-caused.
func ReconcileOnOrgDisable(u *models.User) (StateChange, bool) {
	if !u.IsActive {
		return StateChange{IsActive: u.IsActive, DisabledByOrg: u.DisabledByOrg}, false
	}
	return StateChange{IsActive: false, DisabledByOrg: true}, true
}

// ReconcileOnOrgEnable computes the cascade for a single user when their
// organization is re-enabled. Only users whose inactivity was org-caused
// come back; a manual disable is never undone by an org transition.
func ReconcileOnOrgEnable(u *models.User) (StateChange, bool) {
	if !u.DisabledByOrg {
		return StateChange{IsActive: u.IsActive, DisabledByOrg: u.DisabledByOrg}, false
	}
	return StateChange{IsActive: true, DisabledByOrg: false}, true
}

// ReconcileOnReassign computes the active-state a user must carry after
// moving to dest. A manual disable sticks regardless of the destination;
// otherwise the user tracks the destination organization's active-state.
func ReconcileOnReassign(u *models.User, dest *models.Organization) StateChange {
	if !u.IsActive && !u.DisabledByOrg {
		return StateChange{IsActive: false, DisabledByOrg: false}
	}
	if !dest.IsActive {
		return StateChange{IsActive: false, DisabledByOrg: true}
	}
	return StateChange{IsActive: true, DisabledByOrg: false}
}
