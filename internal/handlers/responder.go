package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/authgate/internal/i18n"
	"github.com/BradenHooton/authgate/internal/models"
	pkghttp "github.com/BradenHooton/authgate/pkg/http"
)

// Responder decodes requests and writes localized responses. It is shared by all handlers.
type Responder struct {
	translator *i18n.Translator
	validator  *Validator
	logger     *slog.Logger
}

func NewResponder(tr *i18n.Translator, logger *slog.Logger) (*Responder, error) {
	v, err := NewValidator(tr)
	if err != nil {
		return nil, err
	}
	return &Responder{translator: tr, validator: v, logger: logger}, nil
}

// Locale picks the response language from Accept-Language.
func (rs *Responder) Locale(r *http.Request) string {
	return rs.translator.LocaleFromHeader(r.Header.Get("Accept-Language"))
}

// Message translates key for the request's locale.
func (rs *Responder) Message(r *http.Request, key string) string {
	return rs.translator.Translate(rs.Locale(r), key)
}

// Decode reads and validates the JSON body into dst. On failure the error
// response is already written and false is returned.
func (rs *Responder) Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := pkghttp.DecodeJSON(w, r, dst); err != nil {
		rs.logger.Debug("rejected request body", slog.String("path", r.URL.Path), slog.Any("error", err))
		rs.WriteError(w, r, models.NewRuleError(models.FieldRule{Key: models.RuleMalformedBody}))
		return false
	}
	if err := rs.validator.Validate(dst, rs.Locale(r)); err != nil {
		rs.WriteError(w, r, err)
		return false
	}
	return true
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidationFailed),
		errors.Is(err, models.ErrActivationInvalid):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredential),
		errors.Is(err, models.ErrSecondFactorRequired),
		errors.Is(err, models.ErrSecondFactorInvalid),
		errors.Is(err, models.ErrRefreshDenied),
		errors.Is(err, models.ErrTokenExpired),
		errors.Is(err, models.ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrDuplicateUser),
		errors.Is(err, models.ErrSecondFactorNotEnrolled),
		errors.Is(err, models.ErrSecondFactorAlreadyEnabled):
		return http.StatusConflict
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotificationFailed):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes the localized error envelope for err.
func (rs *Responder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	key := models.MessageKey(err)
	status := statusFor(err)

	if status >= http.StatusInternalServerError {
		rs.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}

	var details []string
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		details = rs.details(r, ve)
	}

	pkghttp.WriteErrorWithDetails(w, status, strings.TrimPrefix(key, "error."), rs.Message(r, key), details)
}

// details returns the localized detail lines of ve.
func (rs *Responder) details(r *http.Request, ve *models.ValidationError) []string {
	locale := rs.Locale(r)
	details := append([]string(nil), ve.Details...)
	for _, rule := range ve.Rules {
		details = append(details, rs.translator.Translate(locale, rule.Key, rule.Args()...))
	}
	return details
}
