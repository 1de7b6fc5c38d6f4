package models

import "time"

// Purpose scopes a verification token to a single flow.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
	PurposeMagicLink         Purpose = "magic_link"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeEmailVerification, PurposePasswordReset, PurposeMagicLink:
		return true
	}
	return false
}

type VerificationToken struct {
	ID        string
	UserID    string
	TokenHash string
	Purpose   Purpose
	Used      bool
	UsedAt    *time.Time
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (t *VerificationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Clone returns a deep copy of t.
func (t *VerificationToken) Clone() *VerificationToken {
	if t == nil {
		return nil
	}
	c := *t
	if t.UsedAt != nil {
		u := *t.UsedAt
		c.UsedAt = &u
	}
	return &c
}

// EmailVerification is returned when a verification token is issued. Token
// is the only place the plaintext ever appears.
type EmailVerification struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

// CleanupStats counts rows removed by an expiry sweep.
type CleanupStats struct {
	Sessions int64
	Tokens   int64
}
