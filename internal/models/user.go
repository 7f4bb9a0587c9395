package models

import (
	"time"
)

// User is the identity record owned by the user store.
type User struct {
	ID                string
	Email             string
	Name              string
	PasswordHash      string
	TwoFactorSecret   *string // sealed TOTP secret, pending until TwoFactorEnabled
	TwoFactorEnabled  bool
	PasswordChangedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasPendingTwoFactor reports whether a secret was issued but never confirmed.
func (u *User) HasPendingTwoFactor() bool {
	return u.TwoFactorSecret != nil && !u.TwoFactorEnabled
}

// UserDraft holds the fields needed to create a user at activation time.
type UserDraft struct {
	Name         string
	Email        string
	PasswordHash string
}

// UserUpdate is a sparse field set; nil fields are left untouched.
type UserUpdate struct {
	PasswordHash         *string
	TwoFactorSecret      *string
	TwoFactorEnabled     *bool
	ClearTwoFactorSecret bool
}

// IsEmpty reports whether the update would change nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.PasswordHash == nil && u.TwoFactorSecret == nil && u.TwoFactorEnabled == nil && !u.ClearTwoFactorSecret
}
