// Package token issues and consumes single-use, purpose-scoped tokens such
// as email verification links. Only a one-way hash of each token is stored;
// the plaintext is handed to the caller once, at creation.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/models"
	"github.com/dmitrijs2005/gophauth/internal/storage"
	"github.com/oklog/ulid/v2"
)

const (
	DefaultTTL        = 24 * time.Hour
	DefaultTokenBytes = 32
)

type Manager struct {
	HMACKey    []byte
	TokenBytes int
	Now        func() time.Time
	// RevokeOnResend deletes the user's outstanding unused tokens of the
	// same purpose before Resend issues a new one. Off by default: every
	// issued token stays valid until used or expired.
	RevokeOnResend bool
}

func NewManager(hmacKey []byte, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{HMACKey: hmacKey, TokenBytes: DefaultTokenBytes, Now: now}
}

func (m *Manager) now() time.Time {
	if m.Now == nil {
		return time.Now().UTC().Truncate(time.Microsecond)
	}
	return m.Now().UTC().Truncate(time.Microsecond)
}

// Hash returns the stored form of a plaintext token.
func (m *Manager) Hash(plaintext string) string {
	return cryptox.HashToken(plaintext, m.HMACKey)
}

// Create issues a token for userID. ttl <= 0 selects DefaultTTL.
func (m *Manager) Create(ctx context.Context, g storage.Gateway, userID string, purpose models.Purpose, ttl time.Duration) (string, *models.VerificationToken, error) {
	if !purpose.Valid() {
		return "", nil, &common.ValidationError{Field: "purpose", Msg: "unknown token purpose " + string(purpose)}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	plaintext, err := cryptox.NewOpaqueToken(m.TokenBytes)
	if err != nil {
		return "", nil, err
	}

	now := m.now()
	t := &models.VerificationToken{
		ID:        ulid.Make().String(),
		UserID:    userID,
		TokenHash: m.Hash(plaintext),
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	if err := g.Tokens().Create(ctx, t); err != nil {
		return "", nil, common.Storage("create token", err)
	}
	return plaintext, t, nil
}

// Consume spends plaintext for purpose and returns the token's owner.
//
// Checks run in this order: unknown hash (ErrInvalidToken), already used
// (ErrTokenAlreadyUsed), expired (ErrTokenExpired). The final conditional
// update decides concurrent consumers: whoever loses it gets
// ErrTokenAlreadyUsed even though its read saw an unused token.
func (m *Manager) Consume(ctx context.Context, g storage.Gateway, plaintext string, purpose models.Purpose) (*models.User, error) {
	if plaintext == "" {
		return nil, common.ErrInvalidToken
	}

	t, err := g.Tokens().GetByHash(ctx, m.Hash(plaintext), purpose)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.Storage("get token", err)
	}

	now := m.now()
	if t.Used {
		return nil, common.ErrTokenAlreadyUsed
	}
	if t.Expired(now) {
		return nil, common.ErrTokenExpired
	}

	won, err := g.Tokens().MarkUsed(ctx, t.ID, now)
	if err != nil {
		return nil, common.Storage("mark token used", err)
	}
	if !won {
		return nil, common.ErrTokenAlreadyUsed
	}

	u, err := g.Users().GetByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.Storage("get token owner", err)
	}
	return u, nil
}

// Resend issues a fresh token for userID. With RevokeOnResend the previous
// unused tokens are deleted in the same transaction.
func (m *Manager) Resend(ctx context.Context, g storage.Gateway, userID string, purpose models.Purpose, ttl time.Duration) (string, *models.VerificationToken, error) {
	if !m.RevokeOnResend {
		return m.Create(ctx, g, userID, purpose, ttl)
	}

	var (
		plaintext string
		tok       *models.VerificationToken
	)
	err := g.WithinTx(ctx, func(ctx context.Context, tx storage.Gateway) error {
		if _, err := tx.Tokens().DeleteUnused(ctx, userID, purpose); err != nil {
			return common.Storage("revoke tokens", err)
		}
		var err error
		plaintext, tok, err = m.Create(ctx, tx, userID, purpose, ttl)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	return plaintext, tok, nil
}

// DeleteExpired removes every token past its expiry, used or not.
func (m *Manager) DeleteExpired(ctx context.Context, g storage.Gateway) (int64, error) {
	n, err := g.Tokens().DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, common.Storage("delete expired tokens", err)
	}
	return n, nil
}
