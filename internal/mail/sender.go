package mail

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// Sender is the email capability consumed by the auth facade.
type Sender interface {
	SendVerification(ctx context.Context, email, token string, expiresAt time.Time) error
}

// LogSender writes a line per message instead of sending it. Only a short
// prefix of the token is logged.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log.With("module", "mail")}
}

func (s *LogSender) SendVerification(ctx context.Context, email, token string, expiresAt time.Time) error {
	s.log.Info(ctx, "verification email (not sent)",
		"email", email,
		"token_prefix", tokenPrefix(token),
		"expires_at", expiresAt.UTC().Format(time.RFC3339))
	return nil
}

// maskEmail keeps the first character of the local part and the domain.
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	return local[:1] + "***@" + domain
}

func tokenPrefix(token string) string {
	if len(token) <= 6 {
		return "***"
	}
	return token[:6] + "..."
}
