package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/models"
	"github.com/dmitrijs2005/gophauth/internal/password"
	"github.com/dmitrijs2005/gophauth/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodPassword = "Secure1Aa"

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type sentMail struct {
	email, token string
	expiresAt    time.Time
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeSender) SendVerification(_ context.Context, email, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{email, token, expiresAt})
	return nil
}

type fakeRecorder struct {
	mu  sync.Mutex
	obs []string
}

func (r *fakeRecorder) ObserveOperation(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	r.obs = append(r.obs, op+":"+outcome)
	r.mu.Unlock()
}

func fastHasher(t *testing.T) password.Hasher {
	t.Helper()
	argon := password.NewArgon2id(password.Argon2idParams{
		MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	h, err := password.NewVerifier(password.AlgorithmArgon2id, argon, password.NewBcrypt(4))
	require.NoError(t, err)
	return h
}

func backends(t *testing.T) map[string]storage.Store {
	t.Helper()
	ctx := context.Background()

	sq, err := storage.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, sq.Migrate(ctx))
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]storage.Store{
		"memory": storage.NewMemoryStore(),
		"sqlite": sq,
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, st storage.Store)) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) { fn(t, st) })
	}
}

func newAuth(t *testing.T, st storage.Gateway, opts ...Option) *Auth {
	t.Helper()
	a, err := New(st, append([]Option{WithHasher(fastHasher(t))}, opts...)...)
	require.NoError(t, err)
	return a
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	st := storage.NewMemoryStore()
	_, err = New(st, WithHasher(fastHasher(t)), WithTokenHMACKey([]byte("short")))
	require.Error(t, err)

	_, err = New(st, WithHasher(fastHasher(t)), WithSessionTTL(-time.Second))
	require.Error(t, err)

	a, err := New(st, WithHasher(fastHasher(t)), WithTokenHMACKey([]byte(strings.Repeat("k", 32))))
	require.NoError(t, err)
	assert.False(t, a.HasEmailSender())
	assert.False(t, a.RequiresEmailVerification())
	assert.False(t, a.SendsVerificationOnRegister())
}

func TestRegister_ThenFind(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st storage.Store) {
		ctx := context.Background()
		a := newAuth(t, st)

		u, err := a.Register(ctx, "A@Example.com", goodPassword)
		require.NoError(t, err)
		assert.Equal(t, "a@example.com", u.Email)
		assert.False(t, u.EmailVerified)
		assert.NotContains(t, u.PasswordHash, goodPassword)

		found, err := a.identity.FindByEmail(ctx, st, "a@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)
		assert.False(t, found.EmailVerified)
	})
}

func TestRegister_Duplicate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st storage.Store) {
		ctx := context.Background()
		a := newAuth(t, st)

		_, err := a.Register(ctx, "dup@example.com", goodPassword)
		require.NoError(t, err)

		_, err = a.Register(ctx, "DUP@example.com", goodPassword)
		require.ErrorIs(t, err, common.ErrUserAlreadyExists)
	})
}

func TestRegister_InputValidation(t *testing.T) {
	a := newAuth(t, storage.NewMemoryStore())
	ctx := context.Background()

	_, err := a.Register(ctx, "not-an-email", goodPassword)
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = a.Register(ctx, "a@example.com", "short1A")
	require.ErrorIs(t, err, common.ErrWeakPassword)

	var pe *password.PolicyError
	_, err = a.Register(ctx, "a@example.com", "alllowercase1")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "uppercase", pe.Rule)
}

func TestRegister_BcryptLongPassword(t *testing.T) {
	h, err := password.NewVerifier(password.AlgorithmBcrypt, nil, password.NewBcrypt(4))
	require.NoError(t, err)
	a, err := New(storage.NewMemoryStore(), WithHasher(h))
	require.NoError(t, err)
	ctx := context.Background()

	long := "Aa1" + strings.Repeat("x", 90)
	_, err = a.Register(ctx, "long@example.com", long)
	require.ErrorIs(t, err, common.ErrWeakPassword)
	var pe *password.PolicyError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "max_length", pe.Rule)
	assert.Equal(t, "weak_password", common.Kind(err))

	edge := "Aa1" + strings.Repeat("x", password.BcryptMaxBytes-3)
	_, err = a.Register(ctx, "edge@example.com", edge)
	require.NoError(t, err)
	_, err = a.Login(ctx, "edge@example.com", edge)
	require.NoError(t, err)
}

func TestLogin_IdenticalFailures(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st storage.Store) {
		ctx := context.Background()
		a := newAuth(t, st)

		_, err := a.Register(ctx, "a@example.com", goodPassword)
		require.NoError(t, err)

		_, errUnknown := a.Login(ctx, "nobody@example.com", goodPassword)
		_, errWrong := a.Login(ctx, "a@example.com", "Wrong1Password")

		require.Equal(t, common.ErrInvalidCredentials, errUnknown)
		require.Equal(t, common.ErrInvalidCredentials, errWrong)
	})
}

func TestScenario_LoginVerifyLogout(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st storage.Store) {
		ctx := context.Background()
		a := newAuth(t, st)

		u, err := a.Register(ctx, "a@example.com", goodPassword)
		require.NoError(t, err)

		_, err = a.Login(ctx, "a@example.com", "Nope1Nope")
		require.ErrorIs(t, err, common.ErrInvalidCredentials)

		s, err := a.Login(ctx, "a@example.com", goodPassword)
		require.NoError(t, err)
		assert.True(t, s.ExpiresAt.After(time.Now()))
		assert.Equal(t, u.ID, s.UserID)

		got, err := a.Verify(ctx, s.Token)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		require.NoError(t, a.Logout(ctx, s.Token))
		_, err = a.Verify(ctx, s.Token)
		require.ErrorIs(t, err, common.ErrSessionNotFound)

		require.NoError(t, a.Logout(ctx, s.Token))
	})
}

func TestVerify_ExpiredSession(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st storage.Store) {
		ctx := context.Background()
		c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		a := newAuth(t, st, WithClock(c.Now), WithSessionTTL(time.Hour))

		_, err := a.Register(ctx, "a@example.com", goodPassword)
		require.NoError(t, err)
		s, err := a.Login(ctx, "a@example.com", goodPassword)
		require.NoError(t, err)

		c.Advance(time.Hour)
		_, err = a.Verify(ctx, s.Token)
		require.ErrorIs(t, err, common.ErrSessionExpired)
	})
}

func TestLogin_RequireEmailVerification(t *testing.T) {
	ctx := context.Background()
	a := newAuth(t, storage.NewMemoryStore(), WithRequireEmailVerification(true))
	assert.True(t, a.RequiresEmailVerification())

	u, err := a.Register(ctx, "a@example.com", goodPassword)
	require.NoError(t, err)

	_, err = a.Login(ctx, "a@example.com", goodPassword)
	require.ErrorIs(t, err, common.ErrEmailNotVerified)

	ev, err := a.SendEmailVerification(ctx, u.ID)
	require.NoError(t, err)
	_, err = a.VerifyEmail(ctx, ev.Token)
	require.NoError(t, err)

	_, err = a.Login(ctx, "a@example.com", goodPassword)
	require.NoError(t, err)
}

func TestScenario_EmailVerification(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st storage.Store) {
		ctx := context.Background()
		a := newAuth(t, st)

		u, err := a.Register(ctx, "a@example.com", "Secure1Aa")
		require.NoError(t, err)

		before := time.Now()
		ev, err := a.SendEmailVerification(ctx, u.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(ev.Token), 64, "hex of at least 32 random bytes")
		assert.Equal(t, "a@example.com", ev.Email)
		assert.WithinDuration(t, before.Add(24*time.Hour), ev.ExpiresAt, time.Minute)

		got, err := a.VerifyEmail(ctx, ev.Token)
		require.NoError(t, err)
		assert.True(t, got.EmailVerified)
		require.NotNil(t, got.EmailVerifiedAt)

		_, err = a.VerifyEmail(ctx, ev.Token)
		require.ErrorIs(t, err, common.ErrTokenAlreadyUsed)

		_, err = a.SendEmailVerification(ctx, u.ID)
		require.ErrorIs(t, err, common.ErrEmailAlreadyVerified)
		_, err = a.ResendEmailVerification(ctx, "a@example.com")
		require.ErrorIs(t, err, common.ErrEmailAlreadyVerified)
	})
}

func TestVerifyEmail_ConcurrentExactlyOnce(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st storage.Store) {
		ctx := context.Background()
		a := newAuth(t, st)

		u, err := a.Register(ctx, "a@example.com", goodPassword)
		require.NoError(t, err)
		ev, err := a.SendEmailVerification(ctx, u.ID)
		require.NoError(t, err)

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = a.VerifyEmail(ctx, ev.Token)
			}(i)
		}
		wg.Wait()

		var ok, used int
		for _, err := range errs {
			if err == nil {
				ok++
			} else if errors.Is(err, common.ErrTokenAlreadyUsed) {
				used++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, used)
	})
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st storage.Store) {
		ctx := context.Background()
		c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		a := newAuth(t, st, WithClock(c.Now))

		u, err := a.Register(ctx, "a@example.com", goodPassword)
		require.NoError(t, err)
		ev, err := a.SendEmailVerification(ctx, u.ID)
		require.NoError(t, err)

		c.Advance(25 * time.Hour)
		_, err = a.VerifyEmail(ctx, ev.Token)
		require.ErrorIs(t, err, common.ErrTokenExpired)

		_, err = a.VerifyEmail(ctx, "unknown")
		require.ErrorIs(t, err, common.ErrInvalidToken)
	})
}

func TestVerifyEmail_SecondTokenAfterVerification(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st storage.Store) {
		ctx := context.Background()
		a := newAuth(t, st)

		u, err := a.Register(ctx, "a@example.com", goodPassword)
		require.NoError(t, err)
		first, err := a.SendEmailVerification(ctx, u.ID)
		require.NoError(t, err)
		second, err := a.ResendEmailVerification(ctx, "a@example.com")
		require.NoError(t, err)

		_, err = a.VerifyEmail(ctx, first.Token)
		require.NoError(t, err)

		_, err = a.VerifyEmail(ctx, second.Token)
		require.ErrorIs(t, err, common.ErrEmailAlreadyVerified)
	})
}

func TestResend_RevokeOption(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st storage.Store) {
		ctx := context.Background()
		a := newAuth(t, st, WithRevokeTokensOnResend(true))

		u, err := a.Register(ctx, "a@example.com", goodPassword)
		require.NoError(t, err)
		first, err := a.SendEmailVerification(ctx, u.ID)
		require.NoError(t, err)
		second, err := a.ResendEmailVerification(ctx, "A@example.com")
		require.NoError(t, err)

		_, err = a.VerifyEmail(ctx, first.Token)
		require.ErrorIs(t, err, common.ErrInvalidToken)
		_, err = a.VerifyEmail(ctx, second.Token)
		require.NoError(t, err)
	})
}

func TestUnknownUsers(t *testing.T) {
	a := newAuth(t, storage.NewMemoryStore())
	ctx := context.Background()

	_, err := a.SendEmailVerification(ctx, "missing")
	require.ErrorIs(t, err, common.ErrUserNotFound)

	_, err = a.ResendEmailVerification(ctx, "missing@example.com")
	require.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestSender_DeliveryAndFailure(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	a := newAuth(t, storage.NewMemoryStore(), WithEmailSender(sender))
	assert.True(t, a.HasEmailSender())

	u, err := a.Register(ctx, "a@example.com", goodPassword)
	require.NoError(t, err)
	assert.Empty(t, sender.sent, "no auto-send unless enabled")

	ev, err := a.SendEmailVerification(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, sentMail{"a@example.com", ev.Token, ev.ExpiresAt}, sender.sent[0])

	smtpErr := errors.New("smtp down")
	sender.err = smtpErr
	ev, err = a.ResendEmailVerification(ctx, "a@example.com")
	require.ErrorIs(t, err, common.ErrEmailSendFailed)
	require.ErrorIs(t, err, smtpErr)
	require.NotNil(t, ev)

	_, err = a.VerifyEmail(ctx, ev.Token)
	require.NoError(t, err, "token survives a failed delivery")
}

func TestRegister_SendsVerificationWhenEnabled(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	a := newAuth(t, storage.NewMemoryStore(), WithEmailSender(sender), WithSendVerificationOnRegister(true))
	assert.True(t, a.SendsVerificationOnRegister())

	_, err := a.Register(ctx, "a@example.com", goodPassword)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	_, err = a.VerifyEmail(ctx, sender.sent[0].token)
	require.NoError(t, err)

	sender.err = errors.New("smtp down")
	_, err = a.Register(ctx, "b@example.com", goodPassword)
	require.NoError(t, err, "delivery failure does not fail registration")
}

func TestCleanup(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st storage.Store) {
		ctx := context.Background()
		c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
		a := newAuth(t, st, WithClock(c.Now))

		u, err := a.Register(ctx, "a@example.com", goodPassword)
		require.NoError(t, err)
		_, err = a.Login(ctx, "a@example.com", goodPassword)
		require.NoError(t, err)
		_, err = a.SendEmailVerification(ctx, u.ID)
		require.NoError(t, err)

		stats, err := a.Cleanup(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.CleanupStats{}, stats)

		c.Advance(48 * time.Hour)
		stats, err = a.Cleanup(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.CleanupStats{Sessions: 1, Tokens: 1}, stats)
	})
}

func TestRecorder_ObservesOutcomes(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	a := newAuth(t, storage.NewMemoryStore(), WithRecorder(rec))

	_, _ = a.Register(ctx, "a@example.com", goodPassword)
	_, _ = a.Login(ctx, "a@example.com", "bad")
	_ = a.Logout(ctx, "whatever")

	assert.Equal(t, []string{
		"register:ok",
		"login:invalid_credentials",
		"logout:ok",
	}, rec.obs)
}

func TestHMACKeyedTokens(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStore()
	a := newAuth(t, st, WithTokenHMACKey([]byte(strings.Repeat("s", 32))))

	u, err := a.Register(ctx, "a@example.com", goodPassword)
	require.NoError(t, err)
	s, err := a.Login(ctx, "a@example.com", goodPassword)
	require.NoError(t, err)

	got, err := a.Verify(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	plain := newAuth(t, st)
	_, err = plain.Verify(ctx, s.Token)
	require.ErrorIs(t, err, common.ErrSessionNotFound)
}
