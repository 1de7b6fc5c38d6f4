// Package cryptox holds the primitives behind opaque bearer tokens: random
// generation and the hash that is stored in place of the token.
package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// MinHMACKeyBytes is the shortest accepted token HMAC key.
const MinHMACKeyBytes = 32

var ErrHMACKeyTooShort = errors.New("token hmac key too short")

// NewOpaqueToken returns nBytes of randomness hex-encoded (nBytes <= 0
// selects 32, i.e. 256 bits).
func NewOpaqueToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32
	}
	return common.MakeRandHexString(nBytes)
}

// HashToken returns the at-rest form of a token: HMAC-SHA256 when key is set,
// plain SHA-256 otherwise. Output is always 64 hex characters.
func HashToken(token string, key []byte) string {
	if len(key) == 0 {
		sum := sha256.Sum256([]byte(token))
		return hex.EncodeToString(sum[:])
	}
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(token))
	return hex.EncodeToString(m.Sum(nil))
}

// CheckHMACKey accepts an empty key (hashing falls back to SHA-256) or one of
// at least MinHMACKeyBytes.
func CheckHMACKey(key []byte) error {
	if len(key) > 0 && len(key) < MinHMACKeyBytes {
		return ErrHMACKeyTooShort
	}
	return nil
}
