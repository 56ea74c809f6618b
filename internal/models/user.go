package models

import "time"

const (
	RoleSuperAdmin  = "super_admin"
	RoleSystemAdmin = "system_admin"
	RoleOrgAdmin    = "organization_admin"
	RoleMember      = "member"
)

// ValidRole reports whether role is one of the four known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleSystemAdmin, RoleOrgAdmin, RoleMember:
		return true
	}
	return false
}

// User carries identity, role, tenant membership and active-state.
//
// IsActive governs login eligibility. DisabledByOrg records why an inactive
// user is inactive: true means the inactivity was caused by the user's
// organization being disabled (or the user being moved into a disabled
// organization); false means a direct administrative disable. Only
// org-caused inactivity may be undone by an organization-level transition.
type User struct {
	ID            string    `db:"id" json:"id"`
	OrgID         *string   `db:"org_id" json:"org_id,omitempty"`
	Email         string    `db:"email" json:"email"`
	Name          string    `db:"name" json:"name"`
	Role          string    `db:"role" json:"role"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	DisabledByOrg bool      `db:"disabled_by_org" json:"disabled_by_org"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// InOrganization reports whether the user belongs to the given organization.
func (u *User) InOrganization(orgID string) bool {
	return u.OrgID != nil && *u.OrgID == orgID
}
