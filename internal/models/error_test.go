package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "invalid credential", err: ErrInvalidCredential, want: "error.invalid_credential"},
		{name: "wrapped duplicate", err: fmt.Errorf("create: %w", ErrDuplicateUser), want: "error.user_already_existed"},
		{name: "validation error type", err: NewValidationError("email: required"), want: "error.validation_failed"},
		{name: "activation joined with expiry", err: errors.Join(ErrActivationInvalid, ErrTokenExpired), want: "error.invalid_code"},
		{name: "refresh joined with invalid token", err: errors.Join(ErrRefreshDenied, ErrTokenInvalid), want: "error.access_denied"},
		{name: "unknown", err: errors.New("boom"), want: "error.internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MessageKey(tt.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("email: must be a valid email address", "name: this field is required")

	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, "validation failed: email: must be a valid email address; name: this field is required", err.Error())
	assert.Equal(t, "validation failed", NewValidationError().Error())
}

func TestRuleError(t *testing.T) {
	rule := FieldRule{Field: "password", Key: "validation.password_min_length", Params: []string{"8"}}
	err := NewRuleError(rule)

	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, "validation failed: password: validation.password_min_length", err.Error())
	assert.Equal(t, []string{"password", "8"}, rule.Args())
	assert.Equal(t, "error.validation_failed", MessageKey(err))
}
