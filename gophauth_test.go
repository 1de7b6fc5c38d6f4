package gophauth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/gophauth"
	"github.com/stretchr/testify/require"
)

func TestPublicSurface(t *testing.T) {
	ctx := context.Background()

	store, err := gophauth.OpenStore(ctx, gophauth.BackendSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))

	h, err := gophauth.NewBcryptHasher(4)
	require.NoError(t, err)

	a, err := gophauth.New(store, gophauth.WithHasher(h))
	require.NoError(t, err)

	u, err := a.Register(ctx, "pub@example.com", "Secure1Aa")
	require.NoError(t, err)

	s, err := a.Login(ctx, "pub@example.com", "Secure1Aa")
	require.NoError(t, err)

	got, err := a.Verify(ctx, s.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = a.Register(ctx, "pub@example.com", "Secure1Aa")
	require.True(t, errors.Is(err, gophauth.ErrUserAlreadyExists))

	_, err = gophauth.OpenStore(ctx, "oracle", "")
	require.Error(t, err)
}
