package accounts

import (
	"testing"

	"learnhub-backend/internal/models"
)

func TestReconcileOnOrgDisable(t *testing.T) {
	cases := []struct {
		name        string
		user        models.User
		want        StateChange
		wantApplied bool
	}{
		{"active user goes down as org-caused", models.User{IsActive: true}, StateChange{false, true}, true},
		{"org-disabled user unchanged", models.User{IsActive: false, DisabledByOrg: true}, StateChange{false, true}, false},
		{"manually disabled user unchanged", models.User{IsActive: false, DisabledByOrg: false}, StateChange{false, false}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, applied := ReconcileOnOrgDisable(&tc.user)
			if got != tc.want || applied != tc.wantApplied {
				t.Fatalf("got %+v applied=%v, want %+v applied=%v", got, applied, tc.want, tc.wantApplied)
			}
		})
	}
}

func TestReconcileOnOrgEnable(t *testing.T) {
	cases := []struct {
		name        string
		user        models.User
		want        StateChange
		wantApplied bool
	}{
		{"org-disabled user comes back", models.User{IsActive: false, DisabledByOrg: true}, StateChange{true, false}, true},
		{"manually disabled user stays down", models.User{IsActive: false, DisabledByOrg: false}, StateChange{false, false}, false},
		{"active user unchanged", models.User{IsActive: true}, StateChange{true, false}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, applied := ReconcileOnOrgEnable(&tc.user)
			if got != tc.want || applied != tc.wantApplied {
				t.Fatalf("got %+v applied=%v, want %+v applied=%v", got, applied, tc.want, tc.wantApplied)
			}
		})
	}
}

func TestReconcileOnReassign(t *testing.T) {
	activeOrg := &models.Organization{ID: "dest", IsActive: true}
	inactiveOrg := &models.Organization{ID: "dest", IsActive: false}

	cases := []struct {
		name string
		user models.User
		dest *models.Organization
		want StateChange
	}{
		{"manual disable sticks on active dest", models.User{IsActive: false, DisabledByOrg: false}, activeOrg, StateChange{false, false}},
		{"manual disable sticks on inactive dest", models.User{IsActive: false, DisabledByOrg: false}, inactiveOrg, StateChange{false, false}},
		{"org-disabled user revives on active dest", models.User{IsActive: false, DisabledByOrg: true}, activeOrg, StateChange{true, false}},
		{"org-disabled user stays down on inactive dest", models.User{IsActive: false, DisabledByOrg: true}, inactiveOrg, StateChange{false, true}},
		{"active user stays up on active dest", models.User{IsActive: true}, activeOrg, StateChange{true, false}},
		{"active user goes down on inactive dest", models.User{IsActive: true}, inactiveOrg, StateChange{false, true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ReconcileOnReassign(&tc.user, tc.dest); got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
