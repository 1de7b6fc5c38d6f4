package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/models"
	"github.com/dmitrijs2005/gophauth/internal/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenUsers struct{ err error }

func (b brokenUsers) Create(context.Context, *models.User) (*models.User, error) { return nil, b.err }
func (b brokenUsers) GetByEmail(context.Context, string) (*models.User, error)   { return nil, b.err }
func (b brokenUsers) GetByID(context.Context, string) (*models.User, error)      { return nil, b.err }
func (b brokenUsers) MarkEmailVerified(context.Context, string, time.Time) (bool, error) {
	return false, b.err
}

type brokenGateway struct {
	storage.Gateway
	users users.Repository
}

func (g brokenGateway) Users() users.Repository { return g.users }

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) }
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM \n"))
}

func TestValidateEmail(t *testing.T) {
	good := []string{"user@example.com", "first.last+tag@sub.example.co", "a_b%c@x.io"}
	bad := []string{"", "plain", "@example.com", "user@", "user@host", "user@example.c", "us er@example.com"}

	for _, e := range good {
		assert.NoError(t, ValidateEmail(e), e)
	}
	for _, e := range bad {
		err := ValidateEmail(e)
		assert.ErrorIs(t, err, common.ErrValidation, e)
	}
}

func TestCreate_NormalizesAndStamps(t *testing.T) {
	s := NewStore(fixedClock())
	g := storage.NewMemoryStore()
	ctx := context.Background()

	u, err := s.Create(ctx, g, " Bob@Example.com", "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "bob@example.com", u.Email)
	assert.False(t, u.EmailVerified)
	assert.Equal(t, fixedClock()(), u.CreatedAt)

	found, err := s.FindByEmail(ctx, g, "BOB@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestCreate_DuplicateIsUserAlreadyExists(t *testing.T) {
	s := NewStore(nil)
	g := storage.NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, g, "dup@example.com", "h")
	require.NoError(t, err)

	_, err = s.Create(ctx, g, "DUP@example.com", "h")
	require.ErrorIs(t, err, common.ErrUserAlreadyExists)
}

func TestFind_Missing(t *testing.T) {
	s := NewStore(nil)
	g := storage.NewMemoryStore()

	_, err := s.FindByEmail(context.Background(), g, "none@example.com")
	require.ErrorIs(t, err, common.ErrUserNotFound)

	_, err = s.FindByID(context.Background(), g, "nope")
	require.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestStorageFailuresAreWrapped(t *testing.T) {
	s := NewStore(nil)
	cause := errors.New("disk on fire")
	g := brokenGateway{users: brokenUsers{err: cause}}
	ctx := context.Background()

	_, err := s.Create(ctx, g, "a@example.com", "h")
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.ErrorIs(t, err, cause)

	_, err = s.FindByEmail(ctx, g, "a@example.com")
	assert.ErrorIs(t, err, common.ErrStorage)

	_, err = s.MarkEmailVerified(ctx, g, "u", time.Now())
	assert.ErrorIs(t, err, common.ErrStorage)
}

func TestMarkEmailVerified(t *testing.T) {
	s := NewStore(fixedClock())
	g := storage.NewMemoryStore()
	ctx := context.Background()

	u, err := s.Create(ctx, g, "v@example.com", "h")
	require.NoError(t, err)

	at := fixedClock()().Add(time.Hour)
	got, err := s.MarkEmailVerified(ctx, g, u.ID, at)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)
	require.NotNil(t, got.EmailVerifiedAt)
	assert.Equal(t, at, *got.EmailVerifiedAt)

	_, err = s.MarkEmailVerified(ctx, g, u.ID, at)
	require.ErrorIs(t, err, common.ErrEmailAlreadyVerified)

	_, err = s.MarkEmailVerified(ctx, g, "ghost", at)
	require.ErrorIs(t, err, common.ErrUserNotFound)
}
