package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/auth"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/password"
	servergrpc "github.com/dmitrijs2005/gophauth/internal/server/grpc"
	"github.com/dmitrijs2005/gophauth/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const pw = "Sup3rSecret"

func newClient(t *testing.T) *GRPCClient {
	t.Helper()

	argon := password.NewArgon2id(password.Argon2idParams{
		MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	h, err := password.NewVerifier(password.AlgorithmArgon2id, argon, password.NewBcrypt(4))
	require.NoError(t, err)
	a, err := auth.New(storage.NewMemoryStore(), auth.WithHasher(h))
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	srv := servergrpc.NewGRPCServer("bufnet", logging.Nop(), a)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	c, err := New("passthrough:///bufnet", 5*time.Second,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		cancel()
		<-done
	})
	return c
}

func TestClient_FullFlow(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	require.NoError(t, c.Ping(ctx))

	u, err := c.Register(ctx, "erin@example.com", pw)
	require.NoError(t, err)
	assert.Equal(t, "erin@example.com", u.Email)

	_, err = c.WhoAmI(ctx)
	require.ErrorIs(t, err, ErrNotLoggedIn)

	sess, err := c.Login(ctx, "erin@example.com", pw)
	require.NoError(t, err)
	assert.Equal(t, sess.Token, c.AccessToken())

	me, err := c.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)

	ev, err := c.SendEmailVerification(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, ev.Token)

	verified, err := c.VerifyEmail(ctx, ev.Token)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)

	_, err = c.VerifyEmail(ctx, ev.Token)
	require.ErrorIs(t, err, common.ErrTokenAlreadyUsed)

	_, err = c.ResendEmailVerification(ctx, "erin@example.com")
	require.ErrorIs(t, err, common.ErrEmailAlreadyVerified)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.AccessToken())

	// a revoked token no longer authenticates
	c.SetAccessToken(sess.Token)
	_, err = c.WhoAmI(ctx)
	require.ErrorIs(t, err, common.ErrSessionNotFound)
}

func TestClient_ErrorsCarryKinds(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	_, err := c.Register(ctx, "bad", pw)
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, err.Error(), "email")

	_, err = c.Register(ctx, "frank@example.com", "weak")
	require.ErrorIs(t, err, common.ErrWeakPassword)

	_, err = c.Login(ctx, "frank@example.com", pw)
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Empty(t, c.AccessToken())
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))

	plain := errors.New("boom")
	assert.Equal(t, plain, mapError(plain))

	assert.ErrorIs(t, mapError(status.Error(codes.Unavailable, "connection refused")), ErrUnavailable)
	assert.ErrorIs(t, mapError(status.Error(codes.DeadlineExceeded, "")), ErrUnavailable)
	assert.ErrorIs(t, mapError(status.Error(codes.Unavailable, "email_send_failed")), common.ErrEmailSendFailed)
	assert.ErrorIs(t, mapError(status.Error(codes.NotFound, "user_not_found")), common.ErrUserNotFound)

	err := mapError(status.Error(codes.Internal, "internal"))
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(errors.Unwrap(err)))
}
