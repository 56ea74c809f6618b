// Package audit writes the append-only action log. Writes are attempted
// synchronously after the primary mutation succeeds, but a failure is only
// logged; it never reaches the caller of the primary action.
package audit

import (
	"context"
	"log"

	"learnhub-backend/internal/models"
)

type Store interface {
	InsertAuditEntry(ctx context.Context, entry *models.AuditLogEntry) error
}

type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record inserts one audit entry. The returned error exists so call sites
// can discard it explicitly; Record has already logged the failure.
func (r *Recorder) Record(ctx context.Context, entry models.AuditLogEntry) error {
	if err := r.store.InsertAuditEntry(ctx, &entry); err != nil {
		log.Printf("WARN Audit write failed for %s on %s/%s: %v", entry.Action, entry.EntityType, entry.EntityID, err)
		return err
	}
	return nil
}
