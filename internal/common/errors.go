// Package common defines shared constants and sentinel errors used across
// the authentication core and its hosts. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// Input errors.
	ErrValidation   = errors.New("validation error")
	ErrWeakPassword = errors.New("weak password")

	// Identity errors.
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrEmailAlreadyVerified = errors.New("email already verified")
	ErrEmailNotVerified     = errors.New("email not verified")

	// Session errors.
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Token lifecycle errors.
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenAlreadyUsed = errors.New("token already used")

	// Collaborator failures.
	ErrStorage         = errors.New("storage error")
	ErrEmailSendFailed = errors.New("email send failed")
)

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StorageError wraps a backend failure. It matches both ErrStorage and the
// underlying driver error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// Storage wraps err into a *StorageError. A nil err and an err that already
// matches ErrStorage are returned unchanged.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

var kinds = []struct {
	err  error
	name string
}{
	{ErrValidation, "validation"},
	{ErrWeakPassword, "weak_password"},
	{ErrUserAlreadyExists, "user_already_exists"},
	{ErrUserNotFound, "user_not_found"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrEmailAlreadyVerified, "email_already_verified"},
	{ErrEmailNotVerified, "email_not_verified"},
	{ErrSessionNotFound, "session_not_found"},
	{ErrSessionExpired, "session_expired"},
	{ErrInvalidToken, "invalid_token"},
	{ErrTokenExpired, "token_expired"},
	{ErrTokenAlreadyUsed, "token_already_used"},
	{ErrEmailSendFailed, "email_send_failed"},
	{ErrStorage, "storage"},
}

// Kind returns a short, stable label for err suitable for metrics and
// logs: "ok" for nil, "internal" for anything outside the taxonomy.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}

// FromKind is the inverse of Kind for the taxonomy labels. Unknown labels
// yield nil.
func FromKind(name string) error {
	for _, k := range kinds {
		if k.name == name {
			return k.err
		}
	}
	return nil
}
