package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "15m" style
// strings or integer nanoseconds. Absent keys leave the current value alone.
type JsonConfig struct {
	GRPCAddr                   string         `json:"grpc_addr"`
	HTTPAddr                   *string        `json:"http_addr"`
	StorageBackend             string         `json:"storage_backend"`
	DatabaseDSN                string         `json:"database_dsn"`
	PasswordAlgorithm          string         `json:"password_algorithm"`
	BcryptCost                 int            `json:"bcrypt_cost"`
	SessionTTL                 timex.Duration `json:"session_ttl"`
	VerificationTTL            timex.Duration `json:"verification_ttl"`
	TokenHMACKey               string         `json:"token_hmac_key"`
	RequireEmailVerification   *bool          `json:"require_email_verification"`
	SendVerificationOnRegister *bool          `json:"send_verification_on_register"`
	RevokeTokensOnResend       *bool          `json:"revoke_tokens_on_resend"`
	MailMode                   string         `json:"mail_mode"`
	SMTPHost                   string         `json:"smtp_host"`
	SMTPPort                   string         `json:"smtp_port"`
	SMTPUsername               string         `json:"smtp_username"`
	SMTPPassword               string         `json:"smtp_password"`
	SMTPFrom                   string         `json:"smtp_from"`
	VerifyLinkBase             string         `json:"verify_link_base"`
	MailQueueSize              int            `json:"mail_queue_size"`
	MailMaxAttempts            int            `json:"mail_max_attempts"`
	MailRetryBase              timex.Duration `json:"mail_retry_base"`
	MailRetryMax               timex.Duration `json:"mail_retry_max"`
	MailRatePerSecond          float64        `json:"mail_rate_per_second"`
	CleanupInterval            timex.Duration `json:"cleanup_interval"`
	ShutdownTimeout            timex.Duration `json:"shutdown_timeout"`
	LogLevel                   string         `json:"log_level"`
	LogFormat                  string         `json:"log_format"`
}

func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.GRPCAddr, c.GRPCAddr)
	if c.HTTPAddr != nil {
		config.HTTPAddr = *c.HTTPAddr
	}
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.PasswordAlgorithm, c.PasswordAlgorithm)
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	setDuration(&config.SessionTTL, c.SessionTTL)
	setDuration(&config.VerificationTTL, c.VerificationTTL)
	setString(&config.TokenHMACKey, c.TokenHMACKey)
	setBool(&config.RequireEmailVerification, c.RequireEmailVerification)
	setBool(&config.SendVerificationOnRegister, c.SendVerificationOnRegister)
	setBool(&config.RevokeTokensOnResend, c.RevokeTokensOnResend)
	setString(&config.MailMode, c.MailMode)
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.VerifyLinkBase, c.VerifyLinkBase)
	if c.MailQueueSize != 0 {
		config.MailQueueSize = c.MailQueueSize
	}
	if c.MailMaxAttempts != 0 {
		config.MailMaxAttempts = c.MailMaxAttempts
	}
	setDuration(&config.MailRetryBase, c.MailRetryBase)
	setDuration(&config.MailRetryMax, c.MailRetryMax)
	if c.MailRatePerSecond != 0 {
		config.MailRatePerSecond = c.MailRatePerSecond
	}
	setDuration(&config.CleanupInterval, c.CleanupInterval)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
