// Package sessions persists bearer sessions keyed by the hash of their token.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	GetByTokenHash(ctx context.Context, hash string) (*models.Session, error)
	// DeleteByTokenHash is idempotent: deleting a missing session is not an error.
	DeleteByTokenHash(ctx context.Context, hash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
