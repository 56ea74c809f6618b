package models

import "time"

// AuditLogEntry is an append-only record of a mutating action. Writes are
// best-effort: a failed insert never surfaces to the primary operation.
type AuditLogEntry struct {
	ID         int64          `db:"id" json:"id"`
	ActorID    string         `db:"actor_id" json:"actor_id"`
	ActorRole  string         `db:"actor_role" json:"actor_role"`
	Action     string         `db:"action" json:"action"`
	EntityType string         `db:"entity_type" json:"entity_type"`
	EntityID   string         `db:"entity_id" json:"entity_id"`
	Metadata   map[string]any `db:"-" json:"metadata,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
