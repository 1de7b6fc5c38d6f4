package password

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/crypto/argon2"
)

const argon2Version = argon2.Version

type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Upper limits on parameters read back from a stored hash. They do not depend
// on the local configuration, so a hash verifies on any host.
const (
	MaxArgon2idMemoryKiB   uint32 = 256 * 1024
	MaxArgon2idIterations  uint32 = 10
	MaxArgon2idParallelism uint8  = 16
)

// DefaultArgon2idParams: 64 MiB, 3 passes, 2 lanes.
func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

type Argon2id struct {
	Params Argon2idParams
}

func NewArgon2id(p Argon2idParams) *Argon2id {
	return &Argon2id{Params: p}
}

// Hash returns $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<key_b64>.
func (a *Argon2id) Hash(password string) (string, error) {
	salt := common.GenerateRandByteArray(int(a.Params.SaltLength))
	if salt == nil {
		return "", fmt.Errorf("salt: random source failed")
	}

	key := argon2.IDKey([]byte(password), salt,
		a.Params.Iterations, a.Params.MemoryKiB, a.Params.Parallelism, a.Params.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		a.Params.MemoryKiB, a.Params.Iterations, a.Params.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	), nil
}

func (a *Argon2id) Verify(password, encoded string) (bool, error) {
	params, salt, expected, err := decodeArgon2id(encoded)
	if err != nil {
		return false, err
	}

	// Stored parameters are attacker-controllable if the database is.
	if !withinBounds(params, a.limits()) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey([]byte(password), salt,
		params.Iterations, params.MemoryKiB, params.Parallelism,
		uint32(len(expected))) // #nosec G115 -- bounded by withinBounds.

	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

// limits returns the fixed maximums, raised to the local parameters when those
// are configured higher so that own hashes always verify.
func (a *Argon2id) limits() Argon2idParams {
	return Argon2idParams{
		MemoryKiB:   max(MaxArgon2idMemoryKiB, a.Params.MemoryKiB),
		Iterations:  max(MaxArgon2idIterations, a.Params.Iterations),
		Parallelism: max(MaxArgon2idParallelism, a.Params.Parallelism),
	}
}

func withinBounds(got, limits Argon2idParams) bool {
	switch {
	case got.MemoryKiB > limits.MemoryKiB:
		return false
	case got.Iterations > limits.Iterations:
		return false
	case got.Parallelism > limits.Parallelism:
		return false
	case got.SaltLength < 8 || got.SaltLength > 64:
		return false
	case got.KeyLength < 16 || got.KeyLength > 128:
		return false
	}
	return true
}

func decodeArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	return Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),        // #nosec G115 -- checked above.
		SaltLength:  uint32(len(salt)), // #nosec G115
		KeyLength:   uint32(len(key)),  // #nosec G115
	}, salt, key, nil
}
