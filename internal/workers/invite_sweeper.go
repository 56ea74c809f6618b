package workers

import (
	"context"
	"log"
	"time"

	"learnhub-backend/internal/storage"
)

// StartInviteSweeper periodically revokes lapsed invite and password-setup
// tokens so the table stops accumulating usable-looking rows.
func StartInviteSweeper(ctx context.Context, store *storage.Storage) {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepOnce(ctx, store)
			}
		}
	}()
	log.Println("INFO Invite sweeper started")
}

func sweepOnce(ctx context.Context, store *storage.Storage) {
	n, err := store.RevokeExpiredInviteTokens(ctx)
	if err != nil {
		log.Printf("WARN Invite sweeper error: %v", err)
		return
	}
	if n > 0 {
		log.Printf("INFO Invite sweeper revoked %d expired tokens", n)
	}
}
