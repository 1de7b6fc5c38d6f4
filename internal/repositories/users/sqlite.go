package users

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

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at, email_verified) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt.UnixMicro(), boolToInt(user.EmailVerified))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %w", common.ErrConflict, err)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at, email_verified, email_verified_at
		FROM users WHERE email = ?`, email))
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at, email_verified, email_verified_at
		FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) MarkEmailVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	n, err := dbx.ExecAffected(ctx, r.db,
		`UPDATE users SET email_verified = 1, email_verified_at = ? WHERE id = ? AND email_verified = 0`,
		at.UnixMicro(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark user[%s] verified: %w", id, err)
	}
	return n == 1, nil
}

func (r *SQLiteRepository) scanOne(row *sql.Row) (*models.User, error) {
	var (
		u          models.User
		createdAt  int64
		verified   int64
		verifiedAt sql.NullInt64
	)

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt, &verified, &verifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}

	u.CreatedAt = time.UnixMicro(createdAt).UTC()
	u.EmailVerified = verified != 0
	if verifiedAt.Valid {
		t := time.UnixMicro(verifiedAt.Int64).UTC()
		u.EmailVerifiedAt = &t
	}
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
