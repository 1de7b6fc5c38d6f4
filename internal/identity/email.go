package identity

import (
	"regexp"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Every lookup and insert goes through it, so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return &common.ValidationError{Field: "email", Msg: "invalid email format"}
	}
	return nil
}
