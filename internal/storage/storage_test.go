package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendFactory func(t *testing.T) Store

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite-memory": func(t *testing.T) Store {
			return openSQLite(t, ":memory:")
		},
		"sqlite-file": func(t *testing.T) Store {
			return openSQLite(t, filepath.Join(t.TempDir(), "db", "auth.db"))
		},
	}
}

func openSQLite(t *testing.T, path string) Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// forEachBackend runs the same contract test against every backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func seedUser(t *testing.T, g Gateway, id, email string) *models.User {
	t.Helper()
	u := &models.User{ID: id, Email: email, PasswordHash: "hash", CreatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	_, err := g.Users().Create(context.Background(), u)
	require.NoError(t, err)
	return u
}

func TestContract_EmailUniqueness(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		seedUser(t, s, "u-1", "a@example.com")

		_, err := s.Users().Create(context.Background(), &models.User{ID: "u-2", Email: "a@example.com", PasswordHash: "x", CreatedAt: time.Now()})
		require.ErrorIs(t, err, common.ErrConflict)

		_, err = s.Users().GetByID(context.Background(), "u-2")
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestContract_ConcurrentRegistrationSameEmail(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		const n = 10
		var (
			wg        sync.WaitGroup
			ok        atomic.Int32
			conflicts atomic.Int32
		)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Users().Create(context.Background(), &models.User{
					ID: fmt.Sprintf("u-%d", i), Email: "race@example.com", PasswordHash: "h", CreatedAt: time.Now(),
				})
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, common.ErrConflict):
					conflicts.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, ok.Load())
		assert.EqualValues(t, n-1, conflicts.Load())
	})
}

func TestContract_TxCommitAndRollback(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		boom := errors.New("boom")

		err := s.WithinTx(ctx, func(ctx context.Context, g Gateway) error {
			seedUser(t, g, "u-rollback", "rb@example.com")
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.Users().GetByEmail(ctx, "rb@example.com")
		require.ErrorIs(t, err, common.ErrNotFound, "rolled back insert must not be visible")

		err = s.WithinTx(ctx, func(ctx context.Context, g Gateway) error {
			seedUser(t, g, "u-commit", "c@example.com")
			_, err := g.Users().GetByEmail(ctx, "c@example.com")
			return err
		})
		require.NoError(t, err)

		_, err = s.Users().GetByEmail(ctx, "c@example.com")
		require.NoError(t, err)
	})
}

func TestContract_NestedTxJoinsOuter(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		boom := errors.New("outer failed")

		err := s.WithinTx(ctx, func(ctx context.Context, g Gateway) error {
			err := g.WithinTx(ctx, func(ctx context.Context, inner Gateway) error {
				seedUser(t, inner, "u-n", "n@example.com")
				return nil
			})
			require.NoError(t, err)
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.Users().GetByID(ctx, "u-n")
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestContract_TokenSingleUseUnderConcurrency(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedUser(t, s, "u-1", "a@example.com")
		now := time.Now().UTC()
		require.NoError(t, s.Tokens().Create(ctx, &models.VerificationToken{
			ID: "t-1", UserID: "u-1", TokenHash: "h", Purpose: models.PurposeEmailVerification,
			CreatedAt: now, ExpiresAt: now.Add(time.Hour),
		}))

		var (
			wg   sync.WaitGroup
			wins atomic.Int32
		)
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				won, err := s.Tokens().MarkUsed(ctx, "t-1", time.Now())
				if err == nil && won {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, wins.Load())
	})
}

func TestContract_TokenPurposeAndCleanup(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedUser(t, s, "u-1", "a@example.com")
		now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

		for i, exp := range []time.Time{now.Add(-time.Minute), now, now.Add(time.Minute)} {
			require.NoError(t, s.Tokens().Create(ctx, &models.VerificationToken{
				ID: fmt.Sprintf("t-%d", i), UserID: "u-1", TokenHash: fmt.Sprintf("h-%d", i),
				Purpose: models.PurposeEmailVerification, CreatedAt: now.Add(-time.Hour), ExpiresAt: exp,
			}))
		}

		_, err := s.Tokens().GetByHash(ctx, "h-2", models.PurposeMagicLink)
		require.ErrorIs(t, err, common.ErrNotFound)

		n, err := s.Tokens().DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		left, err := s.Tokens().GetByHash(ctx, "h-2", models.PurposeEmailVerification)
		require.NoError(t, err)
		assert.Equal(t, "t-2", left.ID)
	})
}

func TestContract_SessionRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedUser(t, s, "u-1", "a@example.com")
		now := time.Now().UTC().Truncate(time.Microsecond)

		sess := &models.Session{ID: "s-1", Token: "plain", TokenHash: "hash", UserID: "u-1", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
		require.NoError(t, s.Sessions().Create(ctx, sess))

		got, err := s.Sessions().GetByTokenHash(ctx, "hash")
		require.NoError(t, err)
		assert.Empty(t, got.Token, "plaintext is never persisted")
		assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))

		require.NoError(t, s.Sessions().DeleteByTokenHash(ctx, "hash"))
		require.NoError(t, s.Sessions().DeleteByTokenHash(ctx, "hash"))
	})
}

func TestContract_CanceledContext(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.Users().GetByID(ctx, "x")
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrNotFound)
	})
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), BackendMemory, "")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, s.Backend())

	lite, err := Open(context.Background(), BackendSQLite, ":memory:")
	require.NoError(t, err)
	defer lite.Close()
	assert.Equal(t, BackendSQLite, lite.Backend())

	_, err = Open(context.Background(), "mongo", "")
	require.Error(t, err)

	_, err = OpenSQLite(context.Background(), "  ")
	require.Error(t, err)
}
