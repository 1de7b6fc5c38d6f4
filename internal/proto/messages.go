package proto

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/models"
	"google.golang.org/protobuf/types/known/structpb"
)

// NewMessage builds a Struct from string fields.
func NewMessage(fields map[string]string) *structpb.Struct {
	m := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(fields))}
	for k, v := range fields {
		m.Fields[k] = structpb.NewStringValue(v)
	}
	return m
}

// String returns the string field key of m, or "" if absent.
func String(m *structpb.Struct, key string) string {
	if m == nil {
		return ""
	}
	return m.GetFields()[key].GetStringValue()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// UserMessage encodes u without its password hash.
func UserMessage(u *models.User) *structpb.Struct {
	m := &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldID:            structpb.NewStringValue(u.ID),
		FieldEmail:         structpb.NewStringValue(u.Email),
		FieldEmailVerified: structpb.NewBoolValue(u.EmailVerified),
		FieldCreatedAt:     structpb.NewStringValue(formatTime(u.CreatedAt)),
	}}
	if u.EmailVerifiedAt != nil {
		m.Fields[FieldEmailVerifiedAt] = structpb.NewStringValue(formatTime(*u.EmailVerifiedAt))
	}
	return m
}

// WithUser wraps u as the "user" field of a response.
func WithUser(u *models.User) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		FieldUser: structpb.NewStructValue(UserMessage(u)),
	}}
}

// UserFrom decodes the "user" field of a response.
func UserFrom(m *structpb.Struct) (*models.User, error) {
	um := m.GetFields()[FieldUser].GetStructValue()
	if um == nil {
		return nil, fmt.Errorf("response has no %s field", FieldUser)
	}

	created, err := parseTime(String(um, FieldCreatedAt))
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", FieldCreatedAt, err)
	}
	u := &models.User{
		ID:            String(um, FieldID),
		Email:         String(um, FieldEmail),
		EmailVerified: um.GetFields()[FieldEmailVerified].GetBoolValue(),
		CreatedAt:     created,
	}
	if s := String(um, FieldEmailVerifiedAt); s != "" {
		at, err := parseTime(s)
		if err != nil {
			return nil, fmt.Errorf("bad %s: %w", FieldEmailVerifiedAt, err)
		}
		u.EmailVerifiedAt = &at
	}
	return u, nil
}

func SessionMessage(s *models.Session) *structpb.Struct {
	return NewMessage(map[string]string{
		FieldToken:     s.Token,
		FieldUserID:    s.UserID,
		FieldExpiresAt: formatTime(s.ExpiresAt),
	})
}

func SessionFrom(m *structpb.Struct) (*models.Session, error) {
	exp, err := parseTime(String(m, FieldExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", FieldExpiresAt, err)
	}
	return &models.Session{Token: String(m, FieldToken), UserID: String(m, FieldUserID), ExpiresAt: exp}, nil
}

// VerificationMessage encodes ev. The plaintext token is included only when
// withToken is set.
func VerificationMessage(ev *models.EmailVerification, withToken bool) *structpb.Struct {
	f := map[string]string{
		FieldEmail:     ev.Email,
		FieldExpiresAt: formatTime(ev.ExpiresAt),
	}
	if withToken {
		f[FieldToken] = ev.Token
	}
	return NewMessage(f)
}

func VerificationFrom(m *structpb.Struct) (*models.EmailVerification, error) {
	exp, err := parseTime(String(m, FieldExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("bad %s: %w", FieldExpiresAt, err)
	}
	return &models.EmailVerification{Token: String(m, FieldToken), Email: String(m, FieldEmail), ExpiresAt: exp}, nil
}
