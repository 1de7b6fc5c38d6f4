// Package identity creates and looks up user records. It holds no storage of
// its own; every call receives the gateway (possibly transactional) to use.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/models"
	"github.com/dmitrijs2005/gophauth/internal/storage"
	"github.com/google/uuid"
)

type Store struct {
	now func() time.Time
}

// NewStore returns a Store using now as its clock (nil means time.Now).
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{now: now}
}

// Create inserts a new unverified user. The unique index on email decides
// races; there is no read before the write.
func (s *Store) Create(ctx context.Context, g storage.Gateway, email, passwordHash string) (*models.User, error) {
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	if _, err := g.Users().Create(ctx, u); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.ErrUserAlreadyExists
		}
		return nil, common.Storage("create user", err)
	}
	return u, nil
}

func (s *Store) FindByEmail(ctx context.Context, g storage.Gateway, email string) (*models.User, error) {
	u, err := g.Users().GetByEmail(ctx, NormalizeEmail(email))
	return u, mapLookupErr("find user by email", err)
}

func (s *Store) FindByID(ctx context.Context, g storage.Gateway, id string) (*models.User, error) {
	u, err := g.Users().GetByID(ctx, id)
	return u, mapLookupErr("find user by id", err)
}

// MarkEmailVerified sets the verified flag once. A user that is already
// verified yields common.ErrEmailAlreadyVerified.
func (s *Store) MarkEmailVerified(ctx context.Context, g storage.Gateway, userID string, at time.Time) (*models.User, error) {
	changed, err := g.Users().MarkEmailVerified(ctx, userID, at.UTC().Truncate(time.Microsecond))
	if err != nil {
		return nil, common.Storage("mark email verified", err)
	}

	u, err := s.FindByID(ctx, g, userID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, common.ErrEmailAlreadyVerified
	}
	return u, nil
}

func mapLookupErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrNotFound):
		return common.ErrUserNotFound
	default:
		return common.Storage(op, err)
	}
}
