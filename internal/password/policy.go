package password

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

type Policy struct {
	MinLength    int
	MaxLength    int
	RequireUpper bool
	RequireLower bool
	RequireDigit bool
}

// DefaultPolicy: 8..128 characters with at least one uppercase letter, one
// lowercase letter and one digit.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:    8,
		MaxLength:    128,
		RequireUpper: true,
		RequireLower: true,
		RequireDigit: true,
	}
}

// Validate returns a *PolicyError for the first failed rule. Length is
// counted in characters, not bytes.
func (p Policy) Validate(password string) error {
	n := utf8.RuneCountInString(password)

	if p.MinLength > 0 && n < p.MinLength {
		return &PolicyError{Rule: "min_length", Msg: fmt.Sprintf("password must be at least %d characters", p.MinLength)}
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return &PolicyError{Rule: "max_length", Msg: fmt.Sprintf("password must be at most %d characters", p.MaxLength)}
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}

	if p.RequireUpper && !upper {
		return &PolicyError{Rule: "uppercase", Msg: "password must contain at least one uppercase letter"}
	}
	if p.RequireLower && !lower {
		return &PolicyError{Rule: "lowercase", Msg: "password must contain at least one lowercase letter"}
	}
	if p.RequireDigit && !digit {
		return &PolicyError{Rule: "digit", Msg: "password must contain at least one digit"}
	}
	return nil
}
