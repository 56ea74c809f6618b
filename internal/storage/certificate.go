package storage

import (
	"context"
	"database/sql"
	"errors"

	"learnhub-backend/internal/models"
)

// InsertCertificate issues a certificate once per (user, course); redelivered
// completion events fall through without a second row.
func (s *Storage) InsertCertificate(ctx context.Context, cert *models.Certificate) (bool, error) {
	query := `
		INSERT INTO certificates (user_id, course_id, course_title, score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, course_id) DO NOTHING
		RETURNING id, issued_at
	`

	err := s.db.QueryRowContext(ctx, query, cert.UserID, cert.CourseID, cert.CourseTitle, cert.Score).
		Scan(&cert.ID, &cert.IssuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Storage) ListUserCertificates(ctx context.Context, userID string) ([]models.Certificate, error) {
	certs := make([]models.Certificate, 0)
	err := s.db.SelectContext(ctx, &certs, `
		SELECT id, user_id, course_id, course_title, score, issued_at
		FROM certificates
		WHERE user_id = $1
		ORDER BY issued_at DESC
	`, userID)
	return certs, err
}
