// Package users persists identity records.
//
// Create reports a duplicate email as common.ErrConflict; lookups report a
// missing row as common.ErrNotFound. Emails are expected to be normalized by
// the caller.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// MarkEmailVerified flips the flag only if it is currently unset and
	// reports whether a row changed.
	MarkEmailVerified(ctx context.Context, id string, at time.Time) (bool, error)
}
