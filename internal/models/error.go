package models

import (
	"errors"
	"strings"
)

// Sentinel errors for expected failure kinds. Infrastructure failures are
// wrapped and surfaced as ErrInternalServer instead.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInternalServer = errors.New("internal server error")

	ErrValidationFailed  = errors.New("validation failed")
	ErrDuplicateUser     = errors.New("user already exists")
	ErrActivationInvalid = errors.New("activation token or code is invalid")
	ErrInvalidCredential = errors.New("invalid credentials")

	ErrSecondFactorRequired       = errors.New("second factor code required")
	ErrSecondFactorInvalid        = errors.New("second factor code is invalid")
	ErrSecondFactorNotEnrolled    = errors.New("second factor enrollment not started")
	ErrSecondFactorAlreadyEnabled = errors.New("second factor already enabled")

	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")

	ErrRefreshDenied      = errors.New("refresh denied")
	ErrStoreUnavailable   = errors.New("session store unavailable")
	ErrNotificationFailed = errors.New("notification delivery failed")
)

// Message keys for field rules raised outside request validation.
const (
	RuleRequired      = "validation.required"
	RuleInvalidValue  = "validation.invalid_value"
	RuleMalformedBody = "validation.malformed_body"
)

// FieldRule is a failed rule on one field. Key is a translator key whose
// first placeholder is the field name; Params fill the rest.
type FieldRule struct {
	Field  string
	Key    string
	Params []string
}

// Args returns the translator parameters for the rule.
func (r FieldRule) Args() []string {
	return append([]string{r.Field}, r.Params...)
}

// ValidationError carries field-level failures. Details are already
// localized; Rules are resolved by the translator at the HTTP edge.
type ValidationError struct {
	Details []string
	Rules   []FieldRule
}

func (e *ValidationError) Error() string {
	parts := append([]string(nil), e.Details...)
	for _, r := range e.Rules {
		parts = append(parts, r.Field+": "+r.Key)
	}
	if len(parts) == 0 {
		return ErrValidationFailed.Error()
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// NewValidationError builds a ValidationError from localized detail messages.
func NewValidationError(details ...string) *ValidationError {
	return &ValidationError{Details: details}
}

// NewRuleError builds a ValidationError from untranslated field rules.
func NewRuleError(rules ...FieldRule) *ValidationError {
	return &ValidationError{Rules: rules}
}

// messageKeys maps failure kinds to translator keys. Order matters: joined
// errors resolve to the first matching kind.
var messageKeys = []struct {
	err error
	key string
}{
	{ErrValidationFailed, "error.validation_failed"},
	{ErrDuplicateUser, "error.user_already_existed"},
	{ErrActivationInvalid, "error.invalid_code"},
	{ErrInvalidCredential, "error.invalid_credential"},
	{ErrSecondFactorRequired, "error.two_factor_required"},
	{ErrSecondFactorInvalid, "error.two_factor_invalid"},
	{ErrSecondFactorNotEnrolled, "error.two_factor_not_enrolled"},
	{ErrSecondFactorAlreadyEnabled, "error.two_factor_already_enabled"},
	{ErrRefreshDenied, "error.access_denied"},
	{ErrTokenExpired, "error.token_expired"},
	{ErrTokenInvalid, "error.token_invalid"},
	{ErrNotificationFailed, "error.notification_failed"},
	{ErrStoreUnavailable, "error.service_unavailable"},
	{ErrNotFound, "error.not_found"},
}

// MessageKey returns the translator key for err. Unknown errors map to error.internal.
func MessageKey(err error) string {
	for _, mk := range messageKeys {
		if errors.Is(err, mk.err) {
			return mk.key
		}
	}
	return "error.internal"
}

// Event keys for successful outcomes.
const (
	EventRegisterSuccess  = "event.register_success"
	EventActivateSuccess  = "event.activate_success"
	EventLoginSuccess     = "event.login_success"
	EventRefreshSuccess   = "event.refresh_success"
	EventLogoutSuccess    = "event.logout_success"
	EventTwoFactorEnabled = "event.two_factor_enabled"
	EventTwoFactorPending = "event.two_factor_pending"
	EventTwoFactorOff     = "event.two_factor_disabled"
	EventPasswordChanged  = "event.password_changed"
)
