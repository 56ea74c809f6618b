// Package notify fans a notification out to a set of recipients and, best
// effort, publishes a live-delivery event per recipient over NATS.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"learnhub-backend/internal/models"
)

type Store interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	InsertNotificationRecipients(ctx context.Context, notificationID string, userIDs []string) error
}

// Bus is the publish side of a NATS connection. A nil bus disables live
// delivery without affecting persistence.
type Bus interface {
	Publish(subject string, data []byte) error
}

type Result struct {
	NotificationID string `json:"notification_id,omitempty"`
	Recipients     int    `json:"recipients"`
}

type Notifier struct {
	store Store
	bus   Bus
}

func New(store Store, bus Bus) *Notifier {
	return &Notifier{store: store, bus: bus}
}

// Fanout creates one notification row and one recipient row per distinct
// target, excluding the actor from its own notification. With zero
// recipients left after dedup and exclusion, nothing is created and the
// call succeeds. A recipient insert failure after the notification row
// succeeded is logged and reported as zero recipients, not rolled back.
func (n *Notifier) Fanout(ctx context.Context, actorID string, recipientIDs []string, kind, title, body string) (Result, error) {
	recipients := dedupe(recipientIDs, actorID)
	if len(recipients) == 0 {
		return Result{}, nil
	}

	notification := &models.Notification{
		Kind:  kind,
		Title: title,
		Body:  body,
	}
	if actorID != "" {
		notification.ActorID = &actorID
	}

	if err := n.store.InsertNotification(ctx, notification); err != nil {
		return Result{}, err
	}

	if err := n.store.InsertNotificationRecipients(ctx, notification.ID, recipients); err != nil {
		log.Printf("WARN Notification %s recipient insert failed: %v", notification.ID, err)
		return Result{NotificationID: notification.ID}, nil
	}

	n.publish(notification, recipients)

	return Result{NotificationID: notification.ID, Recipients: len(recipients)}, nil
}

func (n *Notifier) publish(notification *models.Notification, recipients []string) {
	if n.bus == nil {
		return
	}
	for _, userID := range recipients {
		event := models.NotificationEvent{
			V:              1,
			TS:             time.Now().UnixMilli(),
			NotificationID: notification.ID,
			UserID:         userID,
			Kind:           notification.Kind,
			Title:          notification.Title,
		}
		data, err := msgpack.Marshal(&event)
		if err != nil {
			log.Printf("WARN Notification event marshal failed: %v", err)
			continue
		}
		if err := n.bus.Publish(SubjectFor(userID), data); err != nil {
			log.Printf("WARN Notification publish failed for %s: %v", userID, err)
		}
	}
}

// SubjectFor is the per-user NATS subject for live notification delivery.
// It must agree with the subscribe permission granted by natscreds.
func SubjectFor(userID string) string {
	return "lms.notify.user." + userID
}

func dedupe(ids []string, exclude string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
