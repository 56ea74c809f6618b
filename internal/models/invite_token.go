package models

import "time"

const (
	TokenPurposeInvite        = "invite"
	TokenPurposePasswordSetup = "password_setup"
)

// InviteToken is a single-use, expiring credential mailed to a user so they
// can set (or reset) their password. Only the bcrypt hash is stored; the
// plaintext token leaves the system exactly once, inside the mail.
type InviteToken struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Purpose     string     `db:"purpose" json:"purpose"`
	TokenPrefix string     `db:"token_prefix" json:"token_prefix"`
	TokenHash   string     `db:"token_hash" json:"-"`
	ExpiresAt   time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt      *time.Time `db:"used_at" json:"used_at,omitempty"`
	RevokedAt   *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	CreatedBy   string     `db:"created_by" json:"created_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// IssuedInviteToken pairs a stored token row with the plaintext secret.
type IssuedInviteToken struct {
	InviteToken
	Token string `json:"token"`
}
