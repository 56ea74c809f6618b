// Package accounts orchestrates the account lifecycle: user disable/enable,
// role changes, organization assignment, invite links and the organization
// disable/enable cascade. Every mutation runs the authz matrix before any
// state is read or written through the privileged store.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"learnhub-backend/internal/authz"
	"learnhub-backend/internal/models"
	"learnhub-backend/internal/notify"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	inviteTTL        = 7 * 24 * time.Hour
	passwordSetupTTL = 24 * time.Hour
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Store is the privileged storage surface. It bypasses row-level security,
// so nothing here may be called before the matrix has allowed the action.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetUserActive(ctx context.Context, id string, active, disabledByOrg bool) error
	UpdateUserRole(ctx context.Context, id, role string) error
	UpdateUserOrganization(ctx context.Context, id, orgID string, active, disabledByOrg bool) error

	CreateOrganization(ctx context.Context, input models.CreateOrganizationInput) (*models.Organization, error)
	GetOrganizationByKey(ctx context.Context, key string) (*models.Organization, error)
	SetOrganizationActive(ctx context.Context, id string, active bool) error
	DisableOrganizationUsers(ctx context.Context, orgID string) (int64, error)
	EnableOrganizationUsers(ctx context.Context, orgID string) (int64, error)

	CreateInviteToken(ctx context.Context, userID, purpose, createdBy string, ttl time.Duration) (*models.IssuedInviteToken, error)
}

// Auditor records a mutating action. The returned error is a discardable
// result: lifecycle operations log it through the recorder and move on.
type Auditor interface {
	Record(ctx context.Context, entry models.AuditLogEntry) error
}

type Notifier interface {
	Fanout(ctx context.Context, actorID string, recipientIDs []string, kind, title, body string) (notify.Result, error)
}

// Mailer delivers invite and password-setup links.
type Mailer interface {
	SendSetupLink(ctx context.Context, email, name, purpose, token string) error
}

// Alerter posts operational alerts for organization lifecycle changes.
type Alerter interface {
	OrgLifecycleAlert(org *models.Organization, actor *models.User, active bool) error
}

type Service struct {
	store    Store
	audit    Auditor
	notifier Notifier
	mail     Mailer
	alerts   Alerter
}

func New(store Store, audit Auditor, notifier Notifier, mail Mailer, alerts Alerter) *Service {
	return &Service{store: store, audit: audit, notifier: notifier, mail: mail, alerts: alerts}
}

// DisableUser marks the target inactive by direct administrative action.
// The disabled_by_org marker is cleared so a later organization enable can
// never resurrect this user.
func (s *Service) DisableUser(ctx context.Context, actor *models.User, targetID string) error {
	target, err := s.authorizeUserAction(ctx, actor, targetID, authz.ActionDisableUser, false)
	if err != nil {
		return err
	}

	if err := s.store.SetUserActive(ctx, target.ID, false, false); err != nil {
		return fmt.Errorf("disable user: %w", err)
	}

	_ = s.audit.Record(ctx, auditEntry(actor, string(authz.ActionDisableUser), "user", target.ID, nil))
	return nil
}

func (s *Service) EnableUser(ctx context.Context, actor *models.User, targetID string) error {
	target, err := s.authorizeUserAction(ctx, actor, targetID, authz.ActionEnableUser, false)
	if err != nil {
		return err
	}

	if err := s.store.SetUserActive(ctx, target.ID, true, false); err != nil {
		return fmt.Errorf("enable user: %w", err)
	}

	_ = s.audit.Record(ctx, auditEntry(actor, string(authz.ActionEnableUser), "user", target.ID, nil))
	return nil
}

func (s *Service) ChangeRole(ctx context.Context, actor *models.User, targetID, newRole string) error {
	if !models.ValidRole(newRole) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, newRole)
	}

	target, err := s.authorizeUserAction(ctx, actor, targetID, authz.ActionChangeRole, false)
	if err != nil {
		return err
	}
	if !authz.CanGrantRole(actor.Role, newRole) {
		return ErrForbidden
	}

	if err := s.store.UpdateUserRole(ctx, target.ID, newRole); err != nil {
		return fmt.Errorf("change role: %w", err)
	}

	_ = s.audit.Record(ctx, auditEntry(actor, string(authz.ActionChangeRole), "user", target.ID, map[string]any{
		"old_role": target.Role,
		"new_role": newRole,
	}))
	_, _ = s.notifier.Fanout(ctx, actor.ID, []string{target.ID},
		"account.role_changed", "Your role was updated", "Your role is now "+newRole+".")
	return nil
}

// AssignOrganization moves an org-scoped user to another organization and
// reconciles their active-state against the destination. A manual disable
// survives the move untouched.
func (s *Service) AssignOrganization(ctx context.Context, actor *models.User, targetID, orgKey string) error {
	if orgKey == "" {
		return fmt.Errorf("%w: organization is required", ErrInvalidInput)
	}

	target, err := s.authorizeUserAction(ctx, actor, targetID, authz.ActionAssignOrganization, false)
	if err != nil {
		return err
	}

	dest, err := s.store.GetOrganizationByKey(ctx, orgKey)
	if err != nil {
		return fmt.Errorf("load organization: %w", err)
	}
	if dest == nil {
		return ErrNotFound
	}

	change := ReconcileOnReassign(target, dest)
	if err := s.store.UpdateUserOrganization(ctx, target.ID, dest.ID, change.IsActive, change.DisabledByOrg); err != nil {
		return fmt.Errorf("assign organization: %w", err)
	}

	_ = s.audit.Record(ctx, auditEntry(actor, string(authz.ActionAssignOrganization), "user", target.ID, map[string]any{
		"organization_id": dest.ID,
		"is_active":       change.IsActive,
	}))
	_, _ = s.notifier.Fanout(ctx, actor.ID, []string{target.ID},
		"account.organization_changed", "You were moved to "+dest.Name, "")
	return nil
}

// ResendInvite issues a fresh invite token for the target and mails the
// setup link. Lookup failures and permission denials are indistinguishable
// to org-scoped callers.
func (s *Service) ResendInvite(ctx context.Context, actor *models.User, targetID string) error {
	return s.sendSetupLink(ctx, actor, targetID, models.TokenPurposeInvite, inviteTTL)
}

// SendPasswordSetup issues a short-lived password-setup token for the target
// and mails the link. Same permission row as invite resend.
func (s *Service) SendPasswordSetup(ctx context.Context, actor *models.User, targetID string) error {
	return s.sendSetupLink(ctx, actor, targetID, models.TokenPurposePasswordSetup, passwordSetupTTL)
}

func (s *Service) sendSetupLink(ctx context.Context, actor *models.User, targetID, purpose string, ttl time.Duration) error {
	target, err := s.authorizeUserAction(ctx, actor, targetID, authz.ActionResendInvite, true)
	if err != nil {
		return err
	}

	issued, err := s.store.CreateInviteToken(ctx, target.ID, purpose, actor.ID, ttl)
	if err != nil {
		return fmt.Errorf("create %s token: %w", purpose, err)
	}

	if err := s.mail.SendSetupLink(ctx, target.Email, target.Name, purpose, issued.Token); err != nil {
		return fmt.Errorf("send %s mail: %w", purpose, err)
	}

	action := string(authz.ActionResendInvite)
	if purpose == models.TokenPurposePasswordSetup {
		action = "user.password_setup"
	}
	_ = s.audit.Record(ctx, auditEntry(actor, action, "user", target.ID, map[string]any{
		"purpose":      purpose,
		"token_prefix": issued.TokenPrefix,
	}))
	return nil
}

func (s *Service) CreateOrganization(ctx context.Context, actor *models.User, input models.CreateOrganizationInput) (*models.Organization, error) {
	if !authz.CanManageOrganizations(actor.Role) {
		return nil, ErrForbidden
	}
	if len(input.Name) < 2 || len(input.Name) > 255 {
		return nil, fmt.Errorf("%w: name must be 2-255 characters", ErrInvalidInput)
	}
	if len(input.Slug) < 2 || len(input.Slug) > 63 || !slugPattern.MatchString(input.Slug) {
		return nil, fmt.Errorf("%w: slug must be lowercase alphanumeric with dashes", ErrInvalidInput)
	}

	org, err := s.store.CreateOrganization(ctx, input)
	if err != nil {
		return nil, err
	}

	_ = s.audit.Record(ctx, auditEntry(actor, "organization.create", "organization", org.ID, map[string]any{
		"slug": org.Slug,
	}))
	return org, nil
}

// SetOrganizationActive toggles the organization flag and cascades to its
// member users. The flag flips first; a cascade failure is reported as an
// error even though the flag already changed, so callers must treat a
// failure as possibly partially applied.
func (s *Service) SetOrganizationActive(ctx context.Context, actor *models.User, orgKey string, active bool) (*models.Organization, error) {
	if !authz.CanManageOrganizations(actor.Role) {
		return nil, ErrForbidden
	}

	org, err := s.store.GetOrganizationByKey(ctx, orgKey)
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if org == nil {
		return nil, ErrNotFound
	}

	if err := s.store.SetOrganizationActive(ctx, org.ID, active); err != nil {
		return nil, fmt.Errorf("set organization active: %w", err)
	}
	org.IsActive = active

	var affected int64
	if active {
		affected, err = s.store.EnableOrganizationUsers(ctx, org.ID)
	} else {
		affected, err = s.store.DisableOrganizationUsers(ctx, org.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("cascade organization users: %w", err)
	}

	action := "organization.disable"
	if active {
		action = "organization.enable"
	}
	_ = s.audit.Record(ctx, auditEntry(actor, action, "organization", org.ID, map[string]any{
		"users_affected": affected,
	}))
	_ = s.alerts.OrgLifecycleAlert(org, actor, active)
	return org, nil
}

// authorizeUserAction loads the target and runs the matrix. With collapse
// set, a denial for a non-privileged caller is reported as not-found so the
// caller cannot tell a protected user from a missing one.
func (s *Service) authorizeUserAction(ctx context.Context, actor *models.User, targetID string, action authz.Action, collapse bool) (*models.User, error) {
	if actor == nil {
		return nil, ErrForbidden
	}

	target, err := s.store.GetUser(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("load target: %w", err)
	}
	if target == nil {
		return nil, ErrNotFound
	}

	if err := authz.Decide(actor, target, action); err != nil {
		if collapse && !authz.Privileged(actor.Role) {
			return nil, ErrNotFound
		}
		return nil, ErrForbidden
	}
	return target, nil
}

func auditEntry(actor *models.User, action, entityType, entityID string, meta map[string]any) models.AuditLogEntry {
	return models.AuditLogEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   meta,
	}
}
