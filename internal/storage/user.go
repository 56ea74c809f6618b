package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"learnhub-backend/internal/models"
)

// userSelect returns the column list for user reads. In degraded mode the
// missing disabled_by_org column scans as false, so every inactive user is
// treated as manually disabled and is never auto-resurrected.
func (s *Storage) userSelect() string {
	if s.hasDisabledByOrg {
		return `SELECT id, org_id, email, name, role, is_active, disabled_by_org, password_hash, created_at FROM users`
	}
	return `SELECT id, org_id, email, name, role, is_active, false AS disabled_by_org, password_hash, created_at FROM users`
}

func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	// A malformed id would fail the uuid cast inside Postgres; treat it as
	// a plain miss instead.
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	var user models.User
	err := s.db.GetContext(ctx, &user, s.userSelect()+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.userSelect()+` WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) ListOrganizationUsers(ctx context.Context, orgID string) ([]models.User, error) {
	users := make([]models.User, 0)
	if _, err := uuid.Parse(orgID); err != nil {
		return users, nil
	}
	err := s.db.SelectContext(ctx, &users, s.userSelect()+` WHERE org_id = $1 ORDER BY created_at`, orgID)
	return users, err
}

func (s *Storage) SetUserActive(ctx context.Context, id string, active, disabledByOrg bool) error {
	if !s.hasDisabledByOrg {
		_, err := s.db.ExecContext(ctx, `UPDATE users SET is_active = $2 WHERE id = $1`, id, active)
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_active = $2, disabled_by_org = $3 WHERE id = $1
	`, id, active, disabledByOrg)
	return err
}

func (s *Storage) UpdateUserRole(ctx context.Context, id, role string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
	return err
}

func (s *Storage) UpdateUserOrganization(ctx context.Context, id, orgID string, active, disabledByOrg bool) error {
	if !s.hasDisabledByOrg {
		_, err := s.db.ExecContext(ctx, `
			UPDATE users SET org_id = $2, is_active = $3 WHERE id = $1
		`, id, orgID, active)
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET org_id = $2, is_active = $3, disabled_by_org = $4 WHERE id = $1
	`, id, orgID, active, disabledByOrg)
	return err
}

func (s *Storage) UpdateUserName(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET name = $2 WHERE id = $1`, id, name)
	return err
}

func (s *Storage) SetUserPassword(ctx context.Context, id, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	return err
}
