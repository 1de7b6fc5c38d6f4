// Package session issues, validates and revokes opaque bearer sessions.
//
// A Manager holds no storage handle. Every call receives the gateway to use,
// so the same Manager serves plain and transactional callers alike.
package session

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
	// HMACKey, when set, keys the at-rest token hash.
	HMACKey []byte
	// TokenBytes is the amount of randomness per token (DefaultTokenBytes if zero).
	TokenBytes int
	Now        func() time.Time
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

// Create starts a session for userID lasting ttl (DefaultTTL when ttl <= 0).
// The returned Session is the only place the plaintext token appears.
func (m *Manager) Create(ctx context.Context, g storage.Gateway, userID string, ttl time.Duration) (*models.Session, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	token, err := cryptox.NewOpaqueToken(m.TokenBytes)
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &models.Session{
		ID:        ulid.Make().String(),
		Token:     token,
		TokenHash: cryptox.HashToken(token, m.HMACKey),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	if err := g.Sessions().Create(ctx, s); err != nil {
		return nil, common.Storage("create session", err)
	}
	return s, nil
}

// Verify resolves token to its owner. An expired session is deleted on the
// way out; the returned error is ErrSessionExpired even if that delete fails.
func (m *Manager) Verify(ctx context.Context, g storage.Gateway, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrSessionNotFound
	}

	hash := cryptox.HashToken(token, m.HMACKey)
	s, err := g.Sessions().GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrSessionNotFound
		}
		return nil, common.Storage("get session", err)
	}

	if s.Expired(m.now()) {
		if derr := g.Sessions().DeleteByTokenHash(ctx, hash); derr != nil {
			return nil, &ExpiredError{DeleteErr: derr}
		}
		return nil, common.ErrSessionExpired
	}

	u, err := g.Users().GetByID(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.Storage("get session owner", err)
	}
	return u, nil
}

// Delete revokes token. Unknown tokens are not an error.
func (m *Manager) Delete(ctx context.Context, g storage.Gateway, token string) error {
	if token == "" {
		return nil
	}
	if err := g.Sessions().DeleteByTokenHash(ctx, cryptox.HashToken(token, m.HMACKey)); err != nil {
		return common.Storage("delete session", err)
	}
	return nil
}

// DeleteExpired removes every session past its expiry and returns the count.
func (m *Manager) DeleteExpired(ctx context.Context, g storage.Gateway) (int64, error) {
	n, err := g.Sessions().DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, common.Storage("delete expired sessions", err)
	}
	return n, nil
}

// ExpiredError is returned by Verify when the session had expired and the
// opportunistic cleanup of its row failed. It matches common.ErrSessionExpired.
type ExpiredError struct {
	DeleteErr error
}

func (e *ExpiredError) Error() string {
	return common.ErrSessionExpired.Error() + " (cleanup failed: " + e.DeleteErr.Error() + ")"
}

func (e *ExpiredError) Unwrap() error { return common.ErrSessionExpired }
