package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/identity"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/models"
	"github.com/dmitrijs2005/gophauth/internal/password"
	"github.com/dmitrijs2005/gophauth/internal/session"
	"github.com/dmitrijs2005/gophauth/internal/storage"
	"github.com/dmitrijs2005/gophauth/internal/token"
)

// Operation names, as passed to Recorder.
const (
	OpRegister                = "register"
	OpLogin                   = "login"
	OpVerify                  = "verify"
	OpLogout                  = "logout"
	OpSendEmailVerification   = "send_email_verification"
	OpVerifyEmail             = "verify_email"
	OpResendEmailVerification = "resend_email_verification"
	OpCleanup                 = "cleanup"
)

// dummyPassword is hashed once at construction; Login verifies against it
// when the email is unknown so both failure branches cost the same.
const dummyPassword = "gophauth-timing-equalizer-0"

type Auth struct {
	store    storage.Gateway
	hasher   password.Hasher
	identity *identity.Store
	sessions *session.Manager
	tokens   *token.Manager
	log      logging.Logger
	opts     options

	dummyHash string
}

// New builds the facade over store. store is the only long-lived storage
// handle in the core.
func New(store storage.Gateway, opts ...Option) (*Auth, error) {
	if store == nil {
		return nil, errors.New("auth: nil storage gateway")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := cryptox.CheckHMACKey(o.hmacKey); err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	if o.sessionTTL <= 0 || o.verificationTTL <= 0 {
		return nil, errors.New("auth: ttl must be positive")
	}
	if o.hasher == nil {
		o.hasher = password.Default()
	}

	dummy, err := o.hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("auth: prepare dummy hash: %w", err)
	}

	tokens := token.NewManager(o.hmacKey, o.now)
	tokens.RevokeOnResend = o.revokeTokensOnResend

	return &Auth{
		store:     store,
		hasher:    o.hasher,
		identity:  identity.NewStore(o.now),
		sessions:  session.NewManager(o.hmacKey, o.now),
		tokens:    tokens,
		log:       o.logger.With("module", "auth"),
		opts:      o,
		dummyHash: dummy,
	}, nil
}

func (a *Auth) HasEmailSender() bool              { return a.opts.sender != nil }
func (a *Auth) RequiresEmailVerification() bool   { return a.opts.requireEmailVerification }
func (a *Auth) SendsVerificationOnRegister() bool { return a.opts.sendVerificationOnRegister }

func (a *Auth) observe(op string, start time.Time, err error) {
	a.opts.recorder.ObserveOperation(op, common.Kind(err), time.Since(start))
}

// Register creates an unverified user. With SendVerificationOnRegister and a
// sender configured it also issues and sends a verification token; a failure
// there is logged and does not fail the registration.
func (a *Auth) Register(ctx context.Context, email, pw string) (u *models.User, err error) {
	defer func(start time.Time) { a.observe(OpRegister, start, err) }(time.Now())

	email = identity.NormalizeEmail(email)
	if err := identity.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := a.opts.policy.Validate(pw); err != nil {
		return nil, err
	}

	hash, err := a.hasher.Hash(pw)
	if err != nil {
		var perr *password.PolicyError
		if errors.As(err, &perr) {
			return nil, perr
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err = a.identity.Create(ctx, a.store, email, hash)
	if err != nil {
		return nil, err
	}
	a.log.Info(ctx, "user registered", "user_id", u.ID)

	if a.opts.sendVerificationOnRegister && a.opts.sender != nil {
		if _, serr := a.issueVerification(ctx, u, false); serr != nil {
			a.log.Warn(ctx, "verification on register failed", "user_id", u.ID, "error", serr)
		}
	}
	return u, nil
}

// Login checks credentials and opens a session. Unknown email and wrong
// password both yield common.ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, email, pw string) (s *models.Session, err error) {
	defer func(start time.Time) { a.observe(OpLogin, start, err) }(time.Now())

	u, err := a.identity.FindByEmail(ctx, a.store, email)
	if err != nil {
		if !errors.Is(err, common.ErrUserNotFound) {
			return nil, err
		}
		_, _ = a.hasher.Verify(pw, a.dummyHash)
		return nil, common.ErrInvalidCredentials
	}

	ok, err := a.hasher.Verify(pw, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	if a.opts.requireEmailVerification && !u.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}

	s, err = a.sessions.Create(ctx, a.store, u.ID, a.opts.sessionTTL)
	if err != nil {
		return nil, err
	}
	a.log.Debug(ctx, "session created", "user_id", u.ID, "session_id", s.ID)
	return s, nil
}

// Verify returns the user owning session token.
func (a *Auth) Verify(ctx context.Context, sessionToken string) (u *models.User, err error) {
	defer func(start time.Time) { a.observe(OpVerify, start, err) }(time.Now())

	u, err = a.sessions.Verify(ctx, a.store, sessionToken)
	var ee *session.ExpiredError
	if errors.As(err, &ee) {
		a.log.Warn(ctx, "expired session cleanup failed", "error", ee.DeleteErr)
	}
	return u, err
}

// Logout revokes a session. Unknown or already revoked tokens are accepted.
func (a *Auth) Logout(ctx context.Context, sessionToken string) (err error) {
	defer func(start time.Time) { a.observe(OpLogout, start, err) }(time.Now())

	return a.sessions.Delete(ctx, a.store, sessionToken)
}

// Cleanup deletes expired sessions and tokens. Correctness never depends on
// it; expiry is enforced on every read.
func (a *Auth) Cleanup(ctx context.Context) (stats models.CleanupStats, err error) {
	defer func(start time.Time) { a.observe(OpCleanup, start, err) }(time.Now())

	if stats.Sessions, err = a.sessions.DeleteExpired(ctx, a.store); err != nil {
		return stats, err
	}
	if stats.Tokens, err = a.tokens.DeleteExpired(ctx, a.store); err != nil {
		return stats, err
	}
	if stats.Sessions+stats.Tokens > 0 {
		a.log.Info(ctx, "expired rows removed", "sessions", stats.Sessions, "tokens", stats.Tokens)
	}
	return stats, nil
}
