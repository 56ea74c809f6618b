package storage

import (
	"context"
	"database/sql"
	"errors"

	"learnhub-backend/internal/models"
)

func (s *Storage) CreateOrganization(ctx context.Context, input models.CreateOrganizationInput) (*models.Organization, error) {
	query := `
		INSERT INTO organizations (name, slug)
		VALUES ($1, $2)
		RETURNING id, name, slug, is_active, created_at
	`

	var org models.Organization
	err := s.db.QueryRowContext(ctx, query, input.Name, input.Slug).
		Scan(&org.ID, &org.Name, &org.Slug, &org.IsActive, &org.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	return &org, nil
}

// GetOrganizationByKey looks an organization up by id or slug; both are
// accepted wherever an organization reference appears in the API.
func (s *Storage) GetOrganizationByKey(ctx context.Context, key string) (*models.Organization, error) {
	query := `
		SELECT id, name, slug, is_active, created_at
		FROM organizations
		WHERE id::text = $1 OR slug = $1
	`

	var org models.Organization
	err := s.db.GetContext(ctx, &org, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &org, nil
}

func (s *Storage) SetOrganizationActive(ctx context.Context, id string, active bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE organizations SET is_active = $2 WHERE id = $1`, id, active)
	return err
}

// DisableOrganizationUsers marks every currently-active member inactive with
// the org-caused marker. Already-inactive users keep their existing reason.
// In degraded mode the marker column is absent and the reason is lost.
func (s *Storage) DisableOrganizationUsers(ctx context.Context, orgID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.disableOrganizationUsersQuery(), orgID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Storage) disableOrganizationUsersQuery() string {
	if !s.hasDisabledByOrg {
		return `
			UPDATE users
			SET is_active = false
			WHERE org_id = $1 AND is_active IS DISTINCT FROM false
		`
	}
	return `
		UPDATE users
		SET is_active = false, disabled_by_org = true
		WHERE org_id = $1 AND is_active IS DISTINCT FROM false
	`
}

// EnableOrganizationUsers re-activates only members whose inactivity was
// org-caused. In degraded mode nobody can be told apart from a manual
// disable, so nobody is resurrected.
func (s *Storage) EnableOrganizationUsers(ctx context.Context, orgID string) (int64, error) {
	if !s.hasDisabledByOrg {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET is_active = true, disabled_by_org = false
		WHERE org_id = $1 AND disabled_by_org = true
	`, orgID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
