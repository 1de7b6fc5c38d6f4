package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

var knownFlags = []string{
	"-a", "-m", "-b", "-d", "-k", "-l",
	"-mail", "-smtp-host",
	"-session-ttl", "-verification-ttl", "-cleanup-interval",
	"-require-verification", "-send-on-register", "-revoke-on-resend",
}

// parseFlags overlays command-line flags.
//
//	-a string    gRPC bind address (":50051")
//	-m string    metrics/health HTTP address; "" disables
//	-b string    storage backend: postgres, sqlite or memory
//	-d string    PostgreSQL DSN or SQLite file path
//	-k string    token HMAC key (at least 32 bytes)
//	-l string    log level
//	-mail string        none, log or smtp
//	-smtp-host string   SMTP relay host
//	-session-ttl, -verification-ttl, -cleanup-interval duration
//	-require-verification, -send-on-register, -revoke-on-resend bool
//
// Arguments not listed above (such as -c) are ignored here.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("authd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.GRPCAddr, "a", config.GRPCAddr, "gRPC listen address")
	fs.StringVar(&config.HTTPAddr, "m", config.HTTPAddr, "metrics and health listen address")
	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "storage backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN or path")
	fs.StringVar(&config.TokenHMACKey, "k", config.TokenHMACKey, "token HMAC key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.MailMode, "mail", config.MailMode, "mail mode")
	fs.StringVar(&config.SMTPHost, "smtp-host", config.SMTPHost, "SMTP host")
	fs.DurationVar(&config.SessionTTL, "session-ttl", config.SessionTTL, "session lifetime")
	fs.DurationVar(&config.VerificationTTL, "verification-ttl", config.VerificationTTL, "verification token lifetime")
	fs.DurationVar(&config.CleanupInterval, "cleanup-interval", config.CleanupInterval, "expiry sweep interval")
	fs.BoolVar(&config.RequireEmailVerification, "require-verification", config.RequireEmailVerification, "refuse login before email verification")
	fs.BoolVar(&config.SendVerificationOnRegister, "send-on-register", config.SendVerificationOnRegister, "send verification email on register")
	fs.BoolVar(&config.RevokeTokensOnResend, "revoke-on-resend", config.RevokeTokensOnResend, "revoke outstanding tokens on resend")

	return fs.Parse(flagx.FilterArgs(args, knownFlags))
}
