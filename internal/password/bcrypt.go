package password

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BcryptMaxBytes is the longest input bcrypt accepts.
const BcryptMaxBytes = 72

type Bcrypt struct {
	Cost int
}

// NewBcrypt returns a bcrypt hasher; cost <= 0 selects bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{Cost: cost}
}

// Hash rejects passwords over BcryptMaxBytes with a max_length *PolicyError.
func (b *Bcrypt) Hash(password string) (string, error) {
	if len(password) > BcryptMaxBytes {
		return "", &PolicyError{
			Rule: "max_length",
			Msg:  fmt.Sprintf("password must be at most %d bytes", BcryptMaxBytes),
		}
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b *Bcrypt) Verify(password, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrInvalidHash
	}
}

func isBcryptHash(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
