package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"learnhub-backend/internal/models"
)

func (s *Storage) InsertNotification(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (actor_id, kind, title, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	var actorID interface{}
	if n.ActorID != nil {
		actorID = *n.ActorID
	}

	return s.db.QueryRowContext(ctx, query, actorID, n.Kind, n.Title, n.Body).
		Scan(&n.ID, &n.CreatedAt)
}

func (s *Storage) InsertNotificationRecipients(ctx context.Context, notificationID string, userIDs []string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_recipients (notification_id, user_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`, notificationID, pq.Array(userIDs))
	return err
}

func (s *Storage) ListUserNotifications(ctx context.Context, userID string, limit int) ([]models.UserNotification, error) {
	query := `
		SELECT n.id, n.actor_id, n.kind, n.title, n.body, n.created_at, r.read_at
		FROM notifications n
		JOIN notification_recipients r ON r.notification_id = n.id
		WHERE r.user_id = $1
		ORDER BY n.created_at DESC
		LIMIT $2
	`

	notifications := make([]models.UserNotification, 0)
	err := s.db.SelectContext(ctx, &notifications, query, userID, limit)
	return notifications, err
}

// MarkNotificationRead stamps the recipient row once; re-reading keeps the
// original timestamp. Returns false when the user is not a recipient.
func (s *Storage) MarkNotificationRead(ctx context.Context, notificationID, userID string) (bool, error) {
	if _, err := uuid.Parse(notificationID); err != nil {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE notification_recipients
		SET read_at = COALESCE(read_at, NOW())
		WHERE notification_id = $1 AND user_id = $2
	`, notificationID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
