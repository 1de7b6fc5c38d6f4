package password

import (
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// ErrInvalidHash reports a malformed or unsupported encoded hash.
var ErrInvalidHash = errors.New("invalid password hash")

// PolicyError names the first policy rule a password failed.
// It matches common.ErrWeakPassword.
type PolicyError struct {
	Rule string
	Msg  string
}

func (e *PolicyError) Error() string { return e.Msg }

func (e *PolicyError) Unwrap() error { return common.ErrWeakPassword }
