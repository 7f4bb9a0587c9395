// Package i18n resolves message keys produced by the auth core into
// localized text.
package i18n

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
)

// DefaultLocale is used when no requested locale is supported.
const DefaultLocale = "en"

var catalog = map[string]map[string]string{
	"en": {
		"error.validation_failed":          "The request is invalid.",
		"error.user_already_existed":       "A user with this email already exists.",
		"error.invalid_code":               "The activation code is invalid or has expired.",
		"error.invalid_credential":         "Invalid email or password.",
		"error.two_factor_required":        "A two-factor authentication code is required.",
		"error.two_factor_invalid":         "The two-factor authentication code is invalid.",
		"error.two_factor_not_enrolled":    "Two-factor authentication setup has not been started.",
		"error.two_factor_already_enabled": "Two-factor authentication is already enabled.",
		"error.access_denied":              "Access denied.",
		"error.token_expired":              "The token has expired.",
		"error.token_invalid":              "The token is invalid.",
		"error.notification_failed":        "We could not send the activation email. Please try again.",
		"error.service_unavailable":        "The service is temporarily unavailable. Please try again.",
		"error.not_found":                  "The requested resource was not found.",
		"error.internal":                   "An unexpected error occurred.",
		"event.register_success":           "Please check your email to activate your account.",
		"event.activate_success":           "Your account has been activated.",
		"event.login_success":              "Login successful.",
		"event.refresh_success":            "Session refreshed.",
		"event.logout_success":             "You have been logged out.",
		"event.two_factor_enabled":         "Two-factor authentication is now enabled.",
		"event.two_factor_pending":         "Scan the QR code, then confirm with a code from your authenticator app.",
		"event.two_factor_disabled":        "Two-factor authentication has been disabled.",
		"event.password_changed":           "Your password has been changed. Please sign in again.",
		"validation.required":              "{0} is a required field",
		"validation.invalid_value":         "{0} has an invalid value",
		"validation.malformed_body":        "The request body is not valid JSON.",
		"validation.password_min_length":   "{0} must be at least {1} characters",
		"validation.password_max_length":   "{0} must be at most {1} bytes",
		"validation.password_uppercase":    "{0} must contain at least one uppercase letter",
		"validation.password_lowercase":    "{0} must contain at least one lowercase letter",
		"validation.password_digit":        "{0} must contain at least one digit",
		"validation.password_special":      "{0} must contain at least one special character",
		"validation.password_common":       "{0} is too common, please choose a more unique password",
	},
	"fr": {
		"error.validation_failed":          "La requête est invalide.",
		"error.user_already_existed":       "Un utilisateur avec cet e-mail existe déjà.",
		"error.invalid_code":               "Le code d'activation est invalide ou a expiré.",
		"error.invalid_credential":         "E-mail ou mot de passe invalide.",
		"error.two_factor_required":        "Un code d'authentification à deux facteurs est requis.",
		"error.two_factor_invalid":         "Le code d'authentification à deux facteurs est invalide.",
		"error.two_factor_not_enrolled":    "La configuration de l'authentification à deux facteurs n'a pas été commencée.",
		"error.two_factor_already_enabled": "L'authentification à deux facteurs est déjà activée.",
		"error.access_denied":              "Accès refusé.",
		"error.token_expired":              "Le jeton a expiré.",
		"error.token_invalid":              "Le jeton est invalide.",
		"error.notification_failed":        "Impossible d'envoyer l'e-mail d'activation. Veuillez réessayer.",
		"error.service_unavailable":        "Le service est temporairement indisponible. Veuillez réessayer.",
		"error.not_found":                  "La ressource demandée est introuvable.",
		"error.internal":                   "Une erreur inattendue s'est produite.",
		"event.register_success":           "Veuillez consulter vos e-mails pour activer votre compte.",
		"event.activate_success":           "Votre compte a été activé.",
		"event.login_success":              "Connexion réussie.",
		"event.refresh_success":            "Session renouvelée.",
		"event.logout_success":             "Vous avez été déconnecté.",
		"event.two_factor_enabled":         "L'authentification à deux facteurs est maintenant activée.",
		"event.two_factor_pending":         "Scannez le code QR, puis confirmez avec un code de votre application d'authentification.",
		"event.two_factor_disabled":        "L'authentification à deux facteurs a été désactivée.",
		"event.password_changed":           "Votre mot de passe a été modifié. Veuillez vous reconnecter.",
		"validation.required":              "{0} est un champ obligatoire",
		"validation.invalid_value":         "{0} a une valeur invalide",
		"validation.malformed_body":        "Le corps de la requête n'est pas un JSON valide.",
		"validation.password_min_length":   "{0} doit contenir au moins {1} caractères",
		"validation.password_max_length":   "{0} doit contenir au plus {1} octets",
		"validation.password_uppercase":    "{0} doit contenir au moins une lettre majuscule",
		"validation.password_lowercase":    "{0} doit contenir au moins une lettre minuscule",
		"validation.password_digit":        "{0} doit contenir au moins un chiffre",
		"validation.password_special":      "{0} doit contenir au moins un caractère spécial",
		"validation.password_common":       "{0} est trop courant, veuillez choisir un mot de passe plus original",
	},
}

// Translator looks up message keys for a locale, falling back to English
// and finally to the key itself.
type Translator struct {
	uni *ut.UniversalTranslator
}

// New builds a Translator with the bundled en and fr catalogs.
func New() (*Translator, error) {
	english := en.New()
	uni := ut.New(english, english, fr.New())

	for locale, messages := range catalog {
		trans, found := uni.GetTranslator(locale)
		if !found {
			return nil, fmt.Errorf("locale %q not registered", locale)
		}
		for key, text := range messages {
			if err := trans.Add(key, text, false); err != nil {
				return nil, fmt.Errorf("failed to add %s/%s: %w", locale, key, err)
			}
		}
	}

	return &Translator{uni: uni}, nil
}

// Translate returns the text for key in locale. params fill the {0}, {1}...
// placeholders of the message, in order.
func (t *Translator) Translate(locale, key string, params ...string) string {
	trans := t.For(locale)
	if text, ok := translate(trans, key, params); ok {
		return text
	}
	if trans.Locale() != DefaultLocale {
		fallback, _ := t.uni.GetTranslator(DefaultLocale)
		if text, ok := translate(fallback, key, params); ok {
			return text
		}
	}
	return key
}

// placeholders matches {0}, {1}... in catalog messages.
var placeholders = regexp.MustCompile(`\{(\d+)\}`)

// paramCount is the number of parameters msg expects.
func paramCount(msg string) int {
	n := 0
	for _, m := range placeholders.FindAllStringSubmatch(msg, -1) {
		if i, err := strconv.Atoi(m[1]); err == nil && i+1 > n {
			n = i + 1
		}
	}
	return n
}

// translate looks key up in trans. A message expecting more parameters than
// were given is reported as missing.
func translate(trans ut.Translator, key string, params []string) (string, bool) {
	if msg, ok := catalog[trans.Locale()][key]; ok && paramCount(msg) > len(params) {
		return "", false
	}
	text, err := trans.T(key, params...)
	if err != nil {
		return "", false
	}
	return text, true
}

// For returns the translator for locale, or the default one.
func (t *Translator) For(locale string) ut.Translator {
	trans, _ := t.uni.FindTranslator(locale)
	return trans
}

// Each calls fn for every supported locale translator.
func (t *Translator) Each(fn func(ut.Translator) error) error {
	for locale := range catalog {
		trans, _ := t.uni.GetTranslator(locale)
		if err := fn(trans); err != nil {
			return err
		}
	}
	return nil
}

// ParseAcceptLanguage returns the base language tags of an Accept-Language
// header in the order given, ignoring quality weights.
func ParseAcceptLanguage(header string) []string {
	var tags []string
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" || tag == "*" {
			continue
		}
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		tags = append(tags, base)
	}
	return tags
}

// LocaleFromHeader picks the first supported locale from an Accept-Language header.
func (t *Translator) LocaleFromHeader(header string) string {
	for _, tag := range ParseAcceptLanguage(header) {
		if _, ok := catalog[tag]; ok {
			return tag
		}
	}
	return DefaultLocale
}
