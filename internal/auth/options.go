package auth

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/password"
)

// EmailSender delivers verification tokens. Message composition belongs to
// the implementation.
type EmailSender interface {
	SendVerification(ctx context.Context, email, token string, expiresAt time.Time) error
}

// Recorder receives one observation per facade call. outcome is
// common.Kind of the returned error.
type Recorder interface {
	ObserveOperation(op, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, time.Duration) {}

type options struct {
	hasher                     password.Hasher
	policy                     password.Policy
	sender                     EmailSender
	logger                     logging.Logger
	recorder                   Recorder
	sessionTTL                 time.Duration
	verificationTTL            time.Duration
	hmacKey                    []byte
	requireEmailVerification   bool
	sendVerificationOnRegister bool
	revokeTokensOnResend       bool
	now                        func() time.Time
}

func defaultOptions() options {
	return options{
		policy:          password.DefaultPolicy(),
		logger:          logging.Nop(),
		recorder:        nopRecorder{},
		sessionTTL:      24 * time.Hour,
		verificationTTL: 24 * time.Hour,
		now:             time.Now,
	}
}

type Option func(*options)

// WithHasher replaces the default Argon2id verifier.
func WithHasher(h password.Hasher) Option {
	return func(o *options) { o.hasher = h }
}

func WithPasswordPolicy(p password.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithEmailSender enables delivery of verification tokens. Without a sender
// the facade only returns them.
func WithEmailSender(s EmailSender) Option {
	return func(o *options) { o.sender = s }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

func WithSessionTTL(d time.Duration) Option {
	return func(o *options) { o.sessionTTL = d }
}

func WithVerificationTTL(d time.Duration) Option {
	return func(o *options) { o.verificationTTL = d }
}

// WithTokenHMACKey keys the at-rest hash of session and verification
// tokens. The key must be at least 32 bytes.
func WithTokenHMACKey(key []byte) Option {
	return func(o *options) { o.hmacKey = append([]byte(nil), key...) }
}

// WithRequireEmailVerification makes Login refuse users whose email is not
// verified yet (common.ErrEmailNotVerified).
func WithRequireEmailVerification(v bool) Option {
	return func(o *options) { o.requireEmailVerification = v }
}

// WithSendVerificationOnRegister makes Register issue and send a
// verification token when an email sender is configured.
func WithSendVerificationOnRegister(v bool) Option {
	return func(o *options) { o.sendVerificationOnRegister = v }
}

// WithRevokeTokensOnResend makes ResendEmailVerification invalidate the
// user's outstanding verification tokens.
func WithRevokeTokensOnResend(v bool) Option {
	return func(o *options) { o.revokeTokensOnResend = v }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
