package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/BradenHooton/authgate/internal/i18n"
	"github.com/BradenHooton/authgate/internal/models"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"
)

// Validator checks request DTOs and reports failures in the caller's language.
type Validator struct {
	validate   *validator.Validate
	translator *i18n.Translator
}

// NewValidator builds a Validator whose messages use the JSON field names and
// every locale known to tr.
func NewValidator(tr *i18n.Translator) (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := tr.Each(func(trans ut.Translator) error {
		switch trans.Locale() {
		case "fr":
			return fr_translations.RegisterDefaultTranslations(v, trans)
		default:
			return en_translations.RegisterDefaultTranslations(v, trans)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register validation translations: %w", err)
	}

	return &Validator{validate: v, translator: tr}, nil
}

// Validate returns a *models.ValidationError listing every failed field, or nil.
func (v *Validator) Validate(req any, locale string) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate request: %w", err)
	}

	trans := v.translator.For(locale)
	details := make([]string, 0, len(ve))
	for _, fe := range ve {
		details = append(details, fe.Translate(trans))
	}
	return models.NewValidationError(details...)
}
