package accounts

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"learnhub-backend/internal/models"
	"learnhub-backend/internal/notify"
)

type memStore struct {
	users      map[string]*models.User
	orgs       map[string]*models.Organization
	tokens     []models.InviteToken
	cascadeErr error
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*models.User),
		orgs:  make(map[string]*models.Organization),
	}
}

func (m *memStore) addUser(id, role, orgID string, active, byOrg bool) *models.User {
	u := &models.User{ID: id, Email: id + "@example.com", Role: role, IsActive: active, DisabledByOrg: byOrg}
	if orgID != "" {
		u.OrgID = &orgID
	}
	m.users[id] = u
	return u
}

func (m *memStore) addOrg(id string, active bool) *models.Organization {
	org := &models.Organization{ID: id, Name: id, Slug: id, IsActive: active}
	m.orgs[id] = org
	return org
}

func (m *memStore) GetUser(_ context.Context, id string) (*models.User, error) {
	return m.users[id], nil
}

func (m *memStore) SetUserActive(_ context.Context, id string, active, byOrg bool) error {
	u := m.users[id]
	u.IsActive = active
	u.DisabledByOrg = byOrg
	return nil
}

func (m *memStore) UpdateUserRole(_ context.Context, id, role string) error {
	m.users[id].Role = role
	return nil
}

func (m *memStore) UpdateUserOrganization(_ context.Context, id, orgID string, active, byOrg bool) error {
	u := m.users[id]
	u.OrgID = &orgID
	u.IsActive = active
	u.DisabledByOrg = byOrg
	return nil
}

func (m *memStore) CreateOrganization(_ context.Context, input models.CreateOrganizationInput) (*models.Organization, error) {
	org := &models.Organization{ID: "org-" + input.Slug, Name: input.Name, Slug: input.Slug, IsActive: true}
	m.orgs[org.ID] = org
	return org, nil
}

func (m *memStore) GetOrganizationByKey(_ context.Context, key string) (*models.Organization, error) {
	if org, ok := m.orgs[key]; ok {
		return org, nil
	}
	for _, org := range m.orgs {
		if org.Slug == key {
			return org, nil
		}
	}
	return nil, nil
}

func (m *memStore) SetOrganizationActive(_ context.Context, id string, active bool) error {
	m.orgs[id].IsActive = active
	return nil
}

func (m *memStore) DisableOrganizationUsers(_ context.Context, orgID string) (int64, error) {
	if m.cascadeErr != nil {
		return 0, m.cascadeErr
	}
	var n int64
	for _, u := range m.users {
		if u.InOrganization(orgID) && u.IsActive {
			u.IsActive = false
			u.DisabledByOrg = true
			n++
		}
	}
	return n, nil
}

func (m *memStore) EnableOrganizationUsers(_ context.Context, orgID string) (int64, error) {
	if m.cascadeErr != nil {
		return 0, m.cascadeErr
	}
	var n int64
	for _, u := range m.users {
		if u.InOrganization(orgID) && u.DisabledByOrg {
			u.IsActive = true
			u.DisabledByOrg = false
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateInviteToken(_ context.Context, userID, purpose, createdBy string, ttl time.Duration) (*models.IssuedInviteToken, error) {
	tok := models.InviteToken{
		ID:          fmt.Sprintf("tok-%d", len(m.tokens)+1),
		UserID:      userID,
		Purpose:     purpose,
		TokenPrefix: "lh_inv_test",
		CreatedBy:   createdBy,
		ExpiresAt:   time.Now().Add(ttl),
	}
	m.tokens = append(m.tokens, tok)
	return &models.IssuedInviteToken{InviteToken: tok, Token: "lh_inv_test_secret"}, nil
}

type memAuditor struct {
	entries []models.AuditLogEntry
	err     error
}

func (a *memAuditor) Record(_ context.Context, entry models.AuditLogEntry) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, entry)
	return nil
}

type memNotifier struct {
	fanouts [][]string
}

func (n *memNotifier) Fanout(_ context.Context, _ string, recipientIDs []string, _, _, _ string) (notify.Result, error) {
	n.fanouts = append(n.fanouts, recipientIDs)
	return notify.Result{Recipients: len(recipientIDs)}, nil
}

type memMailer struct {
	sent []string
	err  error
}

func (m *memMailer) SendSetupLink(_ context.Context, email, _, _, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

type memAlerter struct{ alerts int }

func (a *memAlerter) OrgLifecycleAlert(_ *models.Organization, _ *models.User, _ bool) error {
	a.alerts++
	return nil
}

func newTestService(store *memStore) (*Service, *memAuditor, *memNotifier, *memMailer) {
	auditor := &memAuditor{}
	notifier := &memNotifier{}
	mailer := &memMailer{}
	return New(store, auditor, notifier, mailer, &memAlerter{}), auditor, notifier, mailer
}

func TestOrgDisableCascade(t *testing.T) {
	store := newMemStore()
	store.addOrg("org-1", true)
	admin := store.addUser("admin", models.RoleSystemAdmin, "", true, false)
	a := store.addUser("a", models.RoleMember, "org-1", true, false)
	b := store.addUser("b", models.RoleMember, "org-1", false, true)
	c := store.addUser("c", models.RoleMember, "org-1", false, false)
	outsider := store.addUser("d", models.RoleMember, "org-2", true, false)

	svc, _, _, _ := newTestService(store)

	org, err := svc.SetOrganizationActive(context.Background(), admin, "org-1", false)
	if err != nil {
		t.Fatalf("disable org: %v", err)
	}
	if org.IsActive {
		t.Fatal("organization should be inactive")
	}
	if a.IsActive || !a.DisabledByOrg {
		t.Errorf("active user should be down as org-caused, got active=%v byOrg=%v", a.IsActive, a.DisabledByOrg)
	}
	if b.IsActive || !b.DisabledByOrg {
		t.Errorf("org-disabled user should be unchanged, got active=%v byOrg=%v", b.IsActive, b.DisabledByOrg)
	}
	if c.IsActive || c.DisabledByOrg {
		t.Errorf("manually disabled user should be unchanged, got active=%v byOrg=%v", c.IsActive, c.DisabledByOrg)
	}
	if !outsider.IsActive {
		t.Error("user in another organization must not be touched")
	}
}

func TestOrgEnableCascadeAndIdempotency(t *testing.T) {
	store := newMemStore()
	store.addOrg("org-1", false)
	admin := store.addUser("admin", models.RoleSuperAdmin, "", true, false)
	a := store.addUser("a", models.RoleMember, "org-1", false, true)
	b := store.addUser("b", models.RoleOrgAdmin, "org-1", false, true)
	c := store.addUser("c", models.RoleMember, "org-1", false, false)

	svc, _, _, _ := newTestService(store)

	if _, err := svc.SetOrganizationActive(context.Background(), admin, "org-1", true); err != nil {
		t.Fatalf("enable org: %v", err)
	}
	if !a.IsActive || !b.IsActive {
		t.Error("org-caused-disabled users should come back")
	}
	if c.IsActive {
		t.Error("manually disabled user must stay inactive")
	}

	// Second enable changes nothing.
	if _, err := svc.SetOrganizationActive(context.Background(), admin, "org-1", true); err != nil {
		t.Fatalf("second enable: %v", err)
	}
	if !a.IsActive || !b.IsActive || c.IsActive {
		t.Error("second enable must be a no-op")
	}
}

func TestOrgCascadeFailureReportsErrorAfterFlagFlip(t *testing.T) {
	store := newMemStore()
	store.addOrg("org-1", true)
	admin := store.addUser("admin", models.RoleSystemAdmin, "", true, false)
	store.cascadeErr = errors.New("connection reset")

	svc, _, _, _ := newTestService(store)

	if _, err := svc.SetOrganizationActive(context.Background(), admin, "org-1", false); err == nil {
		t.Fatal("cascade failure must surface as an error")
	}
	// Documented partial-failure mode: the flag flipped before the cascade.
	if store.orgs["org-1"].IsActive {
		t.Error("organization flag should already be flipped when the cascade fails")
	}
}

func TestSetOrganizationActiveForbiddenForOrgScopedRoles(t *testing.T) {
	store := newMemStore()
	store.addOrg("org-1", true)
	orgAdmin := store.addUser("oa", models.RoleOrgAdmin, "org-1", true, false)

	svc, _, _, _ := newTestService(store)

	if _, err := svc.SetOrganizationActive(context.Background(), orgAdmin, "org-1", false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestReassignPreservesManualDisable(t *testing.T) {
	store := newMemStore()
	store.addOrg("org-1", true)
	store.addOrg("org-2", true)
	store.addOrg("org-3", false)
	admin := store.addUser("admin", models.RoleSystemAdmin, "", true, false)
	manual := store.addUser("m", models.RoleMember, "org-1", false, false)

	svc, _, _, _ := newTestService(store)

	if err := svc.AssignOrganization(context.Background(), admin, "m", "org-2"); err != nil {
		t.Fatalf("assign to active org: %v", err)
	}
	if manual.IsActive || manual.DisabledByOrg {
		t.Error("manual disable must survive reassignment to an active org")
	}

	if err := svc.AssignOrganization(context.Background(), admin, "m", "org-3"); err != nil {
		t.Fatalf("assign to inactive org: %v", err)
	}
	if manual.IsActive || manual.DisabledByOrg {
		t.Error("manual disable must survive reassignment to an inactive org")
	}
}

func TestReassignTracksDestinationState(t *testing.T) {
	store := newMemStore()
	store.addOrg("org-1", false)
	store.addOrg("org-2", true)
	store.addOrg("org-3", false)
	admin := store.addUser("admin", models.RoleSystemAdmin, "", true, false)
	u := store.addUser("u", models.RoleMember, "org-1", false, true)

	svc, _, _, _ := newTestService(store)

	if err := svc.AssignOrganization(context.Background(), admin, "u", "org-2"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !u.IsActive || u.DisabledByOrg {
		t.Error("org-caused-disabled user should revive when moved to an active org")
	}

	if err := svc.AssignOrganization(context.Background(), admin, "u", "org-3"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if u.IsActive || !u.DisabledByOrg {
		t.Error("user moved into a disabled org should be down as org-caused")
	}
}

func TestAssignOrganizationUnknownDestination(t *testing.T) {
	store := newMemStore()
	admin := store.addUser("admin", models.RoleSystemAdmin, "", true, false)
	store.addUser("u", models.RoleMember, "", true, false)

	svc, _, _, _ := newTestService(store)

	if err := svc.AssignOrganization(context.Background(), admin, "u", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing destination, got %v", err)
	}
}

func TestDisableUserClearsOrgMarker(t *testing.T) {
	store := newMemStore()
	admin := store.addUser("admin", models.RoleSystemAdmin, "", true, false)
	u := store.addUser("u", models.RoleMember, "org-1", false, true)
	u.IsActive = true
	u.DisabledByOrg = true

	svc, auditor, _, _ := newTestService(store)

	if err := svc.DisableUser(context.Background(), admin, "u"); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if u.IsActive || u.DisabledByOrg {
		t.Error("manual disable must clear the org-caused marker")
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != "user.disable" {
		t.Errorf("expected one user.disable audit entry, got %+v", auditor.entries)
	}
}

func TestAuditFailureDoesNotFailOperation(t *testing.T) {
	store := newMemStore()
	admin := store.addUser("admin", models.RoleSystemAdmin, "", true, false)
	u := store.addUser("u", models.RoleMember, "org-1", true, false)

	svc, auditor, _, _ := newTestService(store)
	auditor.err = errors.New("audit store down")

	if err := svc.DisableUser(context.Background(), admin, "u"); err != nil {
		t.Fatalf("disable must succeed despite audit failure, got %v", err)
	}
	if u.IsActive {
		t.Error("user should be disabled")
	}
}

func TestResendInviteAntiEnumeration(t *testing.T) {
	store := newMemStore()
	store.addOrg("org-1", true)
	store.addOrg("org-2", true)
	orgAdmin := store.addUser("oa", models.RoleOrgAdmin, "org-1", true, false)
	store.addUser("other", models.RoleMember, "org-2", true, false)
	sysAdmin := store.addUser("sys", models.RoleSystemAdmin, "", true, false)
	store.addUser("root", models.RoleSuperAdmin, "", true, false)

	svc, _, _, _ := newTestService(store)
	ctx := context.Background()

	// Org-scoped caller: missing target and forbidden target are identical.
	errMissing := svc.ResendInvite(ctx, orgAdmin, "ghost")
	errForbidden := svc.ResendInvite(ctx, orgAdmin, "other")
	if !errors.Is(errMissing, ErrNotFound) || !errors.Is(errForbidden, ErrNotFound) {
		t.Fatalf("org_admin must get not-found for both cases, got %v / %v", errMissing, errForbidden)
	}

	// Privileged caller keeps the accurate distinction.
	if err := svc.ResendInvite(ctx, sysAdmin, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("system_admin missing target: want ErrNotFound, got %v", err)
	}
	if err := svc.ResendInvite(ctx, sysAdmin, "root"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("system_admin on super_admin: want ErrForbidden, got %v", err)
	}
}

func TestDisableUserAccurateErrorsForOrgAdmin(t *testing.T) {
	store := newMemStore()
	store.addOrg("org-1", true)
	store.addOrg("org-2", true)
	orgAdmin := store.addUser("oa", models.RoleOrgAdmin, "org-1", true, false)
	store.addUser("other", models.RoleMember, "org-2", true, false)

	svc, _, _, _ := newTestService(store)

	// Disable is not a collapsed lookup action; the denial stays accurate.
	if err := svc.DisableUser(context.Background(), orgAdmin, "other"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
}

func TestChangeRoleRules(t *testing.T) {
	store := newMemStore()
	sysAdmin := store.addUser("sys", models.RoleSystemAdmin, "", true, false)
	u := store.addUser("u", models.RoleMember, "org-1", true, false)

	svc, _, notifier, _ := newTestService(store)
	ctx := context.Background()

	if err := svc.ChangeRole(ctx, sysAdmin, "u", "owner"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown role: want ErrInvalidInput, got %v", err)
	}
	if err := svc.ChangeRole(ctx, sysAdmin, "u", models.RoleSuperAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("system_admin promoting to super_admin: want ErrForbidden, got %v", err)
	}
	if err := svc.ChangeRole(ctx, sysAdmin, "u", models.RoleOrgAdmin); err != nil {
		t.Fatalf("change role: %v", err)
	}
	if u.Role != models.RoleOrgAdmin {
		t.Errorf("role not updated: %s", u.Role)
	}
	if len(notifier.fanouts) != 1 {
		t.Errorf("target should be notified of the role change, got %d fanouts", len(notifier.fanouts))
	}
}

func TestSendPasswordSetupIssuesTokenAndMails(t *testing.T) {
	store := newMemStore()
	store.addOrg("org-1", true)
	orgAdmin := store.addUser("oa", models.RoleOrgAdmin, "org-1", true, false)
	store.addUser("u", models.RoleMember, "org-1", true, false)

	svc, auditor, _, mailer := newTestService(store)
	ctx := context.Background()

	if err := svc.SendPasswordSetup(ctx, orgAdmin, "u"); err != nil {
		t.Fatalf("send password setup: %v", err)
	}
	if len(store.tokens) != 1 || store.tokens[0].Purpose != models.TokenPurposePasswordSetup {
		t.Fatalf("expected one password_setup token, got %+v", store.tokens)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "u@example.com" {
		t.Fatalf("expected mail to target, got %v", mailer.sent)
	}

	// The audit trail tells the two setup-link endpoints apart by action.
	if err := svc.ResendInvite(ctx, orgAdmin, "u"); err != nil {
		t.Fatalf("resend invite: %v", err)
	}
	if len(auditor.entries) != 2 {
		t.Fatalf("expected two audit entries, got %d", len(auditor.entries))
	}
	if auditor.entries[0].Action != "user.password_setup" {
		t.Errorf("password setup audit action = %s", auditor.entries[0].Action)
	}
	if auditor.entries[1].Action != "user.resend_invite" {
		t.Errorf("invite resend audit action = %s", auditor.entries[1].Action)
	}
}

func TestCreateOrganizationValidation(t *testing.T) {
	store := newMemStore()
	admin := store.addUser("admin", models.RoleSuperAdmin, "", true, false)
	member := store.addUser("m", models.RoleMember, "org-1", true, false)

	svc, _, _, _ := newTestService(store)
	ctx := context.Background()

	if _, err := svc.CreateOrganization(ctx, member, models.CreateOrganizationInput{Name: "Acme", Slug: "acme"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("member creating org: want ErrForbidden, got %v", err)
	}
	if _, err := svc.CreateOrganization(ctx, admin, models.CreateOrganizationInput{Name: "Acme", Slug: "Not A Slug"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad slug: want ErrInvalidInput, got %v", err)
	}
	org, err := svc.CreateOrganization(ctx, admin, models.CreateOrganizationInput{Name: "Acme", Slug: "acme"})
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	if !org.IsActive {
		t.Error("new organizations start active")
	}
}
