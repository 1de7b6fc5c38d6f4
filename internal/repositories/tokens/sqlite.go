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

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, t *models.VerificationToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tokens (id, user_id, purpose, token_hash, used, created_at, expires_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		t.ID, t.UserID, string(t.Purpose), t.TokenHash, t.CreatedAt.UnixMicro(), t.ExpiresAt.UnixMicro())
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %w", common.ErrConflict, err)
		}
		return fmt.Errorf("failed to insert token: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByHash(ctx context.Context, hash string, purpose models.Purpose) (*models.VerificationToken, error) {
	var (
		t                    models.VerificationToken
		p                    string
		used                 int64
		usedAt               sql.NullInt64
		createdAt, expiresAt int64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, purpose, token_hash, used, used_at, created_at, expires_at
		FROM tokens WHERE token_hash = ? AND purpose = ?`, hash, string(purpose)).
		Scan(&t.ID, &t.UserID, &p, &t.TokenHash, &used, &usedAt, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	t.Purpose = models.Purpose(p)
	t.Used = used != 0
	t.CreatedAt = time.UnixMicro(createdAt).UTC()
	t.ExpiresAt = time.UnixMicro(expiresAt).UTC()
	if usedAt.Valid {
		u := time.UnixMicro(usedAt.Int64).UTC()
		t.UsedAt = &u
	}
	return &t, nil
}

func (r *SQLiteRepository) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	n, err := dbx.ExecAffected(ctx, r.db,
		`UPDATE tokens SET used = 1, used_at = ? WHERE id = ? AND used = 0`, at.UnixMicro(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark token[%s] used: %w", id, err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) DeleteUnused(ctx context.Context, userID string, purpose models.Purpose) (int64, error) {
	n, err := dbx.ExecAffected(ctx, r.db,
		`DELETE FROM tokens WHERE user_id = ? AND purpose = ? AND used = 0`, userID, string(purpose))
	if err != nil {
		return 0, fmt.Errorf("failed to delete unused tokens: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := dbx.ExecAffected(ctx, r.db, `DELETE FROM tokens WHERE expires_at <= ?`, now.UnixMicro())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return n, nil
}
