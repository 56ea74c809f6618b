// Package natscreds issues short-lived, per-user NATS credentials so a
// logged-in client can subscribe to its own live notification subject and
// nothing else.
package natscreds

import (
	"fmt"
	"time"

	"github.com/nats-io/jwt/v2"
	"github.com/nats-io/nkeys"

	"learnhub-backend/internal/notify"
)

type Issuer struct {
	signingKey   nkeys.KeyPair
	accountPubID string
}

func NewIssuer(signingKeySeed, accountPubKey string) (*Issuer, error) {
	kp, err := nkeys.FromSeed([]byte(signingKeySeed))
	if err != nil {
		return nil, fmt.Errorf("invalid NATS signing key seed: %w", err)
	}

	if accountPubKey == "" {
		return nil, fmt.Errorf("missing NATS account public key")
	}

	return &Issuer{
		signingKey:   kp,
		accountPubID: accountPubKey,
	}, nil
}

func GenerateUserKeyPair() (seed string, publicKey string, err error) {
	kp, err := nkeys.CreateUser()
	if err != nil {
		return "", "", err
	}

	seedBytes, err := kp.Seed()
	if err != nil {
		return "", "", err
	}

	publicKey, err = kp.PublicKey()
	if err != nil {
		return "", "", err
	}

	return string(seedBytes), publicKey, nil
}

// IssueNotificationJWT signs a user JWT whose subscribe permissions cover
// exactly the user's own notification subject plus the request-reply inbox.
func (i *Issuer) IssueNotificationJWT(userID, publicKey string, expiresIn time.Duration) (string, time.Time, error) {
	if !nkeys.IsValidPublicUserKey(publicKey) {
		return "", time.Time{}, fmt.Errorf("invalid user public key")
	}

	now := time.Now().UTC()
	expiresAt := now.Add(expiresIn)

	claims := jwt.NewUserClaims(publicKey)
	claims.IssuedAt = now.Unix()
	claims.Expires = expiresAt.Unix()
	claims.IssuerAccount = i.accountPubID

	claims.Permissions.Sub.Allow.Add(notify.SubjectFor(userID))
	claims.Permissions.Sub.Allow.Add("_INBOX.>")

	encoded, err := claims.Encode(i.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encode jwt: %w", err)
	}

	return encoded, expiresAt, nil
}

// BuildCredsFile formats JWT and NKey seed into the standard NATS .creds
// file layout, ready to hand to a client library.
func BuildCredsFile(jwtToken, nkeySeed string) string {
	return `-----BEGIN NATS USER JWT-----
` + jwtToken + `
-----END NATS USER JWT-----

-----BEGIN USER NKEY SEED-----
` + nkeySeed + `
-----END USER NKEY SEED-----
`
}
