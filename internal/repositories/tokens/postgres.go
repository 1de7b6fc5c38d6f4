package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.VerificationToken) error {
	query :=
		`INSERT INTO tokens (id, user_id, purpose, token_hash, used, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, FALSE, $5, $6)`

	_, err := r.db.ExecContext(ctx, query, t.ID, t.UserID, string(t.Purpose), t.TokenHash, t.CreatedAt, t.ExpiresAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %w", common.ErrConflict, err)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByHash(ctx context.Context, hash string, purpose models.Purpose) (*models.VerificationToken, error) {
	query :=
		`SELECT id, user_id, purpose, token_hash, used, used_at, created_at, expires_at
		 FROM tokens WHERE token_hash = $1 AND purpose = $2`

	var (
		t      models.VerificationToken
		p      string
		usedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, hash, string(purpose)).
		Scan(&t.ID, &t.UserID, &p, &t.TokenHash, &t.Used, &usedAt, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	t.Purpose = models.Purpose(p)
	t.CreatedAt = t.CreatedAt.UTC()
	t.ExpiresAt = t.ExpiresAt.UTC()
	if usedAt.Valid {
		u := usedAt.Time.UTC()
		t.UsedAt = &u
	}
	return &t, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	query :=
		`UPDATE tokens SET used = TRUE, used_at = $2
		 WHERE id = $1 AND used = FALSE`

	n, err := dbx.ExecAffected(ctx, r.db, query, id, at)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) DeleteUnused(ctx context.Context, userID string, purpose models.Purpose) (int64, error) {
	n, err := dbx.ExecAffected(ctx, r.db,
		`DELETE FROM tokens WHERE user_id = $1 AND purpose = $2 AND used = FALSE`, userID, string(purpose))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := dbx.ExecAffected(ctx, r.db, `DELETE FROM tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
