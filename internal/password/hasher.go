package password

import (
	"fmt"
	"strings"
)

// Hasher is the credential verifier capability used by the core.
// Verify returns (false, nil) on mismatch and an error only when the stored
// hash cannot be interpreted.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

// Verifier hashes with the configured algorithm and verifies any supported
// hash by its prefix.
type Verifier struct {
	algorithm Algorithm
	argon     *Argon2id
	bcrypt    *Bcrypt
}

func NewVerifier(algorithm Algorithm, argon *Argon2id, bc *Bcrypt) (*Verifier, error) {
	if argon == nil {
		argon = NewArgon2id(DefaultArgon2idParams())
	}
	if bc == nil {
		bc = NewBcrypt(0)
	}

	switch algorithm {
	case "":
		algorithm = AlgorithmArgon2id
	case AlgorithmArgon2id, AlgorithmBcrypt:
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", algorithm)
	}

	return &Verifier{algorithm: algorithm, argon: argon, bcrypt: bc}, nil
}

// Default returns an Argon2id verifier with default parameters.
func Default() *Verifier {
	v, _ := NewVerifier(AlgorithmArgon2id, nil, nil)
	return v
}

func (v *Verifier) Algorithm() Algorithm { return v.algorithm }

func (v *Verifier) Hash(password string) (string, error) {
	if v.algorithm == AlgorithmBcrypt {
		return v.bcrypt.Hash(password)
	}
	return v.argon.Hash(password)
}

func (v *Verifier) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return v.argon.Verify(password, encoded)
	case isBcryptHash(encoded):
		return v.bcrypt.Verify(password, encoded)
	default:
		return false, ErrInvalidHash
	}
}
