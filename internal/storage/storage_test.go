package storage

import (
	"context"
	"strings"
	"testing"
)

// The degraded mode (users.disabled_by_org column absent) is a first-class
// variant: disables lose the org-caused marker, enables resurrect nobody,
// and every user read scans the marker as false.

func TestUserSelectDegradedScansMarkerAsFalse(t *testing.T) {
	full := &Storage{hasDisabledByOrg: true}
	degraded := &Storage{hasDisabledByOrg: false}

	if !strings.Contains(full.userSelect(), ", disabled_by_org,") {
		t.Errorf("full-schema select must read the marker column: %s", full.userSelect())
	}
	if !strings.Contains(degraded.userSelect(), "false AS disabled_by_org") {
		t.Errorf("degraded select must alias the marker to false: %s", degraded.userSelect())
	}
}

func TestDisableCascadeQueryVariants(t *testing.T) {
	full := &Storage{hasDisabledByOrg: true}
	degraded := &Storage{hasDisabledByOrg: false}

	if !strings.Contains(full.disableOrganizationUsersQuery(), "disabled_by_org = true") {
		t.Error("full-schema disable cascade must set the org-caused marker")
	}
	if strings.Contains(degraded.disableOrganizationUsersQuery(), "disabled_by_org") {
		t.Error("degraded disable cascade must not touch the missing column")
	}
	// Both variants only touch users that are still active.
	for _, q := range []string{full.disableOrganizationUsersQuery(), degraded.disableOrganizationUsersQuery()} {
		if !strings.Contains(q, "is_active IS DISTINCT FROM false") {
			t.Errorf("cascade must skip already-inactive users: %s", q)
		}
	}
}

func TestDegradedEnableCascadeResurrectsNobody(t *testing.T) {
	// No db attached: the degraded path must return before any query runs,
	// because manual and org-caused disables cannot be told apart.
	degraded := &Storage{hasDisabledByOrg: false}

	n, err := degraded.EnableOrganizationUsers(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("degraded enable cascade: %v", err)
	}
	if n != 0 {
		t.Fatalf("degraded enable cascade must affect zero users, got %d", n)
	}
}

func TestDisabledByOrgSupported(t *testing.T) {
	if (&Storage{hasDisabledByOrg: true}).DisabledByOrgSupported() != true {
		t.Error("full schema must report marker support")
	}
	if (&Storage{}).DisabledByOrgSupported() != false {
		t.Error("degraded schema must report no marker support")
	}
}
