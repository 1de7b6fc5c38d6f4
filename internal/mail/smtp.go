package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"net/url"
	"strings"
	"time"
)

var sendMail = smtp.SendMail

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	// LinkBase is the page that receives ?token=...; when empty the raw
	// token is put in the message.
	LinkBase string
}

type SMTPSender struct {
	cfg  SMTPConfig
	tmpl *template.Template
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}

	t, err := template.New("verification").Parse(verificationTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &SMTPSender{cfg: cfg, tmpl: t}, nil
}

func (s *SMTPSender) SendVerification(ctx context.Context, email, token string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := s.render(email, token, expiresAt)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	if err := sendMail(addr, auth, s.cfg.From, []string{email}, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (s *SMTPSender) render(to, token string, expiresAt time.Time) ([]byte, error) {
	data := struct {
		Link      string
		Token     string
		ExpiresAt string
	}{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format("2006-01-02 15:04 MST"),
	}
	if s.cfg.LinkBase != "" {
		data.Link = s.cfg.LinkBase + "?token=" + url.QueryEscape(token)
	}

	var body bytes.Buffer
	if err := s.tmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Verify your email address\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.Write(body.Bytes())
	b.WriteString("\r\n")
	return []byte(b.String()), nil
}

const verificationTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Verify your email address</h2>
{{if .Link}}<p>Open the link below to confirm your address:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
{{else}}<p>Your verification code:</p>
<p style="font-family: monospace; word-break: break-all;">{{.Token}}</p>
{{end}}<p>The code expires at {{.ExpiresAt}}.</p>
<p>If you did not create an account you can ignore this message.</p>
</body>
</html>`
