// Package tokens persists single-use, purpose-scoped verification tokens.
// Only token hashes are stored.
package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.VerificationToken) error
	GetByHash(ctx context.Context, hash string, purpose models.Purpose) (*models.VerificationToken, error)
	// MarkUsed sets used only if the token is still unused and reports
	// whether this call won. Concurrent callers see exactly one true.
	MarkUsed(ctx context.Context, id string, at time.Time) (bool, error)
	DeleteUnused(ctx context.Context, userID string, purpose models.Purpose) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
