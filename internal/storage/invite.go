package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"learnhub-backend/internal/models"
)

var (
	ErrInviteTokenNotFound = errors.New("invite token not found")
	ErrInviteTokenRevoked  = errors.New("invite token revoked")
	ErrInviteTokenExpired  = errors.New("invite token expired")
	ErrInviteTokenUsed     = errors.New("invite token already used")
)

const (
	inviteTokenPrefix = "lh_st_"
	inviteTokenLength = 32
	tokenPrefixLength = 12
)

// CreateInviteToken issues a fresh single-use setup token for the user.
// Only the bcrypt hash is persisted; the plaintext goes out in the mail and
// is gone after that.
func (s *Storage) CreateInviteToken(ctx context.Context, userID, purpose, createdBy string, ttl time.Duration) (*models.IssuedInviteToken, error) {
	token, prefix, hash, err := GenerateInviteToken()
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO invite_tokens (user_id, purpose, token_prefix, token_hash, expires_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, user_id, purpose, token_prefix, expires_at, created_at
	`

	var it models.InviteToken
	err = s.db.QueryRowContext(ctx, query,
		userID, purpose, prefix, hash, time.Now().Add(ttl), nullIfEmpty(createdBy),
	).Scan(&it.ID, &it.UserID, &it.Purpose, &it.TokenPrefix, &it.ExpiresAt, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	it.CreatedBy = createdBy

	return &models.IssuedInviteToken{InviteToken: it, Token: token}, nil
}

// ConsumeInviteToken validates a plaintext token and marks it used. The
// prefix narrows the candidate rows; the bcrypt hash decides the match.
func (s *Storage) ConsumeInviteToken(ctx context.Context, token string) (*models.InviteToken, error) {
	if len(token) < tokenPrefixLength {
		return nil, ErrInviteTokenNotFound
	}

	query := `
		SELECT id, user_id, purpose, token_prefix, token_hash, expires_at, used_at, revoked_at, created_at
		FROM invite_tokens
		WHERE token_prefix = $1
	`

	rows, err := s.db.QueryxContext(ctx, query, token[:tokenPrefixLength])
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it models.InviteToken
		if err := rows.StructScan(&it); err != nil {
			return nil, err
		}

		if !ValidateTokenHash(token, it.TokenHash) {
			continue
		}

		if it.RevokedAt != nil {
			return nil, ErrInviteTokenRevoked
		}
		if it.UsedAt != nil {
			return nil, ErrInviteTokenUsed
		}
		if it.ExpiresAt.Before(time.Now()) {
			return nil, ErrInviteTokenExpired
		}

		res, err := s.db.ExecContext(ctx, `
			UPDATE invite_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL
		`, it.ID)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrInviteTokenUsed
		}

		return &it, nil
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nil, ErrInviteTokenNotFound
}

// RevokeExpiredInviteTokens marks all lapsed, still-live tokens revoked so
// the table stops accumulating usable-looking rows.
func (s *Storage) RevokeExpiredInviteTokens(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE invite_tokens
		SET revoked_at = NOW()
		WHERE expires_at < NOW() AND used_at IS NULL AND revoked_at IS NULL
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func GenerateInviteToken() (token string, prefix string, hash string, err error) {
	bytes := make([]byte, inviteTokenLength)
	if _, err = rand.Read(bytes); err != nil {
		return "", "", "", err
	}

	token = inviteTokenPrefix + hex.EncodeToString(bytes)
	prefix = token[:tokenPrefixLength]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", err
	}

	return token, prefix, string(hashBytes), nil
}

func ValidateTokenHash(token, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
