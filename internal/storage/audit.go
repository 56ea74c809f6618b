package storage

import (
	"context"
	"encoding/json"

	"learnhub-backend/internal/models"
)

func (s *Storage) InsertAuditEntry(ctx context.Context, entry *models.AuditLogEntry) error {
	metadata := []byte("{}")
	if entry.Metadata != nil {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			return err
		}
		metadata = data
	}

	query := `
		INSERT INTO audit_log (actor_id, actor_role, action, entity_type, entity_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		RETURNING id, created_at
	`

	return s.db.QueryRowContext(ctx, query,
		entry.ActorID, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
}
