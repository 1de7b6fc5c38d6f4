// Package gophauth is an embeddable authentication core: user identities,
// opaque bearer sessions and single-use verification tokens over PostgreSQL,
// SQLite or memory storage.
//
//	store, err := gophauth.OpenStore(ctx, gophauth.BackendSQLite, "auth.db")
//	if err != nil { ... }
//	if err := store.Migrate(ctx); err != nil { ... }
//
//	a, err := gophauth.New(store, gophauth.WithSessionTTL(12*time.Hour))
//	user, err := a.Register(ctx, "a@example.com", "Secure1Aa")
//	sess, err := a.Login(ctx, "a@example.com", "Secure1Aa")
//
// Errors match the Err* values of this package with errors.Is.
package gophauth

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/auth"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/models"
	"github.com/dmitrijs2005/gophauth/internal/password"
	"github.com/dmitrijs2005/gophauth/internal/storage"
)

type (
	Auth              = auth.Auth
	Option            = auth.Option
	EmailSender       = auth.EmailSender
	Recorder          = auth.Recorder
	User              = models.User
	Session           = models.Session
	EmailVerification = models.EmailVerification
	CleanupStats      = models.CleanupStats
	Store             = storage.Store
	Gateway           = storage.Gateway
	Hasher            = password.Hasher
	PasswordPolicy    = password.Policy
	ValidationError   = common.ValidationError
	StorageError      = common.StorageError
	PolicyError       = password.PolicyError
)

const (
	BackendPostgres = storage.BackendPostgres
	BackendSQLite   = storage.BackendSQLite
	BackendMemory   = storage.BackendMemory
)

var (
	ErrValidation           = common.ErrValidation
	ErrWeakPassword         = common.ErrWeakPassword
	ErrUserAlreadyExists    = common.ErrUserAlreadyExists
	ErrUserNotFound         = common.ErrUserNotFound
	ErrInvalidCredentials   = common.ErrInvalidCredentials
	ErrEmailAlreadyVerified = common.ErrEmailAlreadyVerified
	ErrEmailNotVerified     = common.ErrEmailNotVerified
	ErrSessionNotFound      = common.ErrSessionNotFound
	ErrSessionExpired       = common.ErrSessionExpired
	ErrInvalidToken         = common.ErrInvalidToken
	ErrTokenExpired         = common.ErrTokenExpired
	ErrTokenAlreadyUsed     = common.ErrTokenAlreadyUsed
	ErrStorage              = common.ErrStorage
	ErrEmailSendFailed      = common.ErrEmailSendFailed
)

var (
	WithHasher                     = auth.WithHasher
	WithPasswordPolicy             = auth.WithPasswordPolicy
	WithEmailSender                = auth.WithEmailSender
	WithLogger                     = auth.WithLogger
	WithRecorder                   = auth.WithRecorder
	WithSessionTTL                 = auth.WithSessionTTL
	WithVerificationTTL            = auth.WithVerificationTTL
	WithTokenHMACKey               = auth.WithTokenHMACKey
	WithRequireEmailVerification   = auth.WithRequireEmailVerification
	WithSendVerificationOnRegister = auth.WithSendVerificationOnRegister
	WithRevokeTokensOnResend       = auth.WithRevokeTokensOnResend
	WithClock                      = auth.WithClock
)

// New builds an Auth over store.
func New(store Gateway, opts ...Option) (*Auth, error) {
	return auth.New(store, opts...)
}

// OpenStore opens one of the bundled backends. dsn is a PostgreSQL DSN or an
// SQLite file path (":memory:" works too) and is ignored for BackendMemory.
func OpenStore(ctx context.Context, backend, dsn string) (Store, error) {
	return storage.Open(ctx, backend, dsn)
}

// NewMemoryStore returns an empty in-process store, mostly useful in tests.
func NewMemoryStore() Store {
	return storage.NewMemoryStore()
}

func DefaultPasswordPolicy() PasswordPolicy { return password.DefaultPolicy() }

// NewBcryptHasher returns a Hasher that writes bcrypt hashes and still
// verifies existing Argon2id ones.
func NewBcryptHasher(cost int) (Hasher, error) {
	return password.NewVerifier(password.AlgorithmBcrypt, nil, password.NewBcrypt(cost))
}
