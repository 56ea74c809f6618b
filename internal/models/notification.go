package models

import "time"

// Notification exists once per message; recipients carry per-user read state.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	ActorID   *string   `db:"actor_id" json:"actor_id,omitempty"`
	Kind      string    `db:"kind" json:"kind"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type NotificationRecipient struct {
	NotificationID string     `db:"notification_id" json:"notification_id"`
	UserID         string     `db:"user_id" json:"user_id"`
	ReadAt         *time.Time `db:"read_at" json:"read_at,omitempty"`
}

// UserNotification is the per-recipient view returned by list endpoints.
type UserNotification struct {
	Notification
	ReadAt *time.Time `db:"read_at" json:"read_at,omitempty"`
}
