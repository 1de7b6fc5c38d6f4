// Package config loads the authd daemon settings. Sources are applied in
// order, later ones winning: built-in defaults, an optional JSON file (-c or
// -config), GOPHAUTH_* environment variables, then command-line flags.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/password"
	"github.com/dmitrijs2005/gophauth/internal/storage"
)

const (
	MailNone = "none"
	MailLog  = "log"
	MailSMTP = "smtp"
)

// Config holds runtime settings for the authd daemon.
type Config struct {
	GRPCAddr string `env:"GRPC_ADDR"`
	// HTTPAddr serves /metrics and /healthz; empty disables it.
	HTTPAddr string `env:"HTTP_ADDR"`

	StorageBackend string `env:"STORAGE_BACKEND"`
	DatabaseDSN    string `env:"DATABASE_DSN"`

	PasswordAlgorithm string `env:"PASSWORD_ALGORITHM"`
	BcryptCost        int    `env:"BCRYPT_COST"`

	SessionTTL      time.Duration `env:"SESSION_TTL"`
	VerificationTTL time.Duration `env:"VERIFICATION_TTL"`
	TokenHMACKey    string        `env:"TOKEN_HMAC_KEY"`

	RequireEmailVerification   bool `env:"REQUIRE_EMAIL_VERIFICATION"`
	SendVerificationOnRegister bool `env:"SEND_VERIFICATION_ON_REGISTER"`
	RevokeTokensOnResend       bool `env:"REVOKE_TOKENS_ON_RESEND"`

	MailMode       string `env:"MAIL_MODE"`
	SMTPHost       string `env:"SMTP_HOST"`
	SMTPPort       string `env:"SMTP_PORT"`
	SMTPUsername   string `env:"SMTP_USERNAME"`
	SMTPPassword   string `env:"SMTP_PASSWORD"`
	SMTPFrom       string `env:"SMTP_FROM"`
	VerifyLinkBase string `env:"VERIFY_LINK_BASE"`

	MailQueueSize     int           `env:"MAIL_QUEUE_SIZE"`
	MailMaxAttempts   int           `env:"MAIL_MAX_ATTEMPTS"`
	MailRetryBase     time.Duration `env:"MAIL_RETRY_BASE"`
	MailRetryMax      time.Duration `env:"MAIL_RETRY_MAX"`
	MailRatePerSecond float64       `env:"MAIL_RATE_PER_SECOND"`

	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`

	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
}

// LoadDefaults populates Config with development defaults: embedded SQLite,
// log-only mail, no token HMAC key.
func (c *Config) LoadDefaults() {
	c.GRPCAddr = ":50051"
	c.HTTPAddr = ":9090"
	c.StorageBackend = storage.BackendSQLite
	c.DatabaseDSN = "gophauth.db"
	c.PasswordAlgorithm = string(password.AlgorithmArgon2id)
	c.SessionTTL = 24 * time.Hour
	c.VerificationTTL = 24 * time.Hour
	c.MailMode = MailLog
	c.SMTPPort = "587"
	c.MailQueueSize = 100
	c.MailMaxAttempts = 2
	c.MailRetryBase = time.Second
	c.MailRetryMax = time.Minute
	c.CleanupInterval = 10 * time.Minute
	c.ShutdownTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// Load builds a Config from defaults, the JSON file named in args, the
// process environment and finally args themselves.
func Load(args []string) (*Config, error) {
	return load(args, nil)
}

func load(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, environ); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case storage.BackendPostgres, storage.BackendSQLite:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("database dsn is required for %s", c.StorageBackend)
		}
	case storage.BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	switch password.Algorithm(c.PasswordAlgorithm) {
	case password.AlgorithmArgon2id, password.AlgorithmBcrypt:
	default:
		return fmt.Errorf("unknown password algorithm %q", c.PasswordAlgorithm)
	}

	if c.SessionTTL <= 0 || c.VerificationTTL <= 0 {
		return fmt.Errorf("session and verification ttl must be positive")
	}
	if err := cryptox.CheckHMACKey([]byte(c.TokenHMACKey)); err != nil {
		return fmt.Errorf("token hmac key: %w", err)
	}

	switch c.MailMode {
	case MailNone, MailLog:
	case MailSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("smtp host is required when mail mode is smtp")
		}
	default:
		return fmt.Errorf("unknown mail mode %q", c.MailMode)
	}
	return nil
}
