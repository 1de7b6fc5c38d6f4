// Package models holds the records persisted by the authentication core.
package models

import "time"

type User struct {
	ID              string
	Email           string
	PasswordHash    string
	CreatedAt       time.Time
	EmailVerified   bool
	EmailVerifiedAt *time.Time
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.EmailVerifiedAt != nil {
		t := *u.EmailVerifiedAt
		c.EmailVerifiedAt = &t
	}
	return &c
}
