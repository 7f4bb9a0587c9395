package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBcryptCost = 14 // OWASP 2026 recommendation
	MinPasswordLen    = 8
	MaxPasswordLen    = 72 // bcrypt ignores input past 72 bytes
)

// Hasher turns a plaintext password into a self-describing hash and checks
// plaintexts against it.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// BcryptHasher is the Hasher used by the service. Hashes carry their own
// salt and cost in the $2a$<cost>$ format.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given cost. Costs outside
// bcrypt's accepted range fall back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is a mismatch.
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	return err == nil
}

// Message keys for failed password rules.
const (
	RulePasswordMinLength = "validation.password_min_length"
	RulePasswordMaxLength = "validation.password_max_length"
	RulePasswordUppercase = "validation.password_uppercase"
	RulePasswordLowercase = "validation.password_lowercase"
	RulePasswordDigit     = "validation.password_digit"
	RulePasswordSpecial   = "validation.password_special"
	RulePasswordCommon    = "validation.password_common"
)

// PolicyRule is a failed password rule: a message key and its parameters.
type PolicyRule struct {
	Key    string
	Params []string
}

// PasswordValidationError holds the failed policy rules.
type PasswordValidationError struct {
	Rules []PolicyRule
}

func (e *PasswordValidationError) Error() string {
	if len(e.Rules) == 0 {
		return "password validation failed"
	}
	return "invalid password"
}

// Common weak passwords to reject
var commonPasswords = map[string]bool{
	"password":     true,
	"12345678":     true,
	"qwerty":       true,
	"abc123":       true,
	"password123":  true,
	"password123!": true,
	"admin":        true,
	"letmein":      true,
	"welcome":      true,
	"monkey":       true,
	"dragon":       true,
	"passw0rd":     true,
	"sunshine":     true,
	"princess":     true,
	"football":     true,
	"trustno1":     true,
}

// ValidatePassword enforces the password policy.
func ValidatePassword(password string) error {
	var failed []PolicyRule

	if len(password) < MinPasswordLen {
		failed = append(failed, PolicyRule{Key: RulePasswordMinLength, Params: []string{strconv.Itoa(MinPasswordLen)}})
	}
	if len(password) > MaxPasswordLen {
		failed = append(failed, PolicyRule{Key: RulePasswordMaxLength, Params: []string{strconv.Itoa(MaxPasswordLen)}})
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		failed = append(failed, PolicyRule{Key: RulePasswordUppercase})
	}
	if !hasLower {
		failed = append(failed, PolicyRule{Key: RulePasswordLowercase})
	}
	if !hasDigit {
		failed = append(failed, PolicyRule{Key: RulePasswordDigit})
	}
	if !hasSpecial {
		failed = append(failed, PolicyRule{Key: RulePasswordSpecial})
	}
	if commonPasswords[strings.ToLower(password)] {
		failed = append(failed, PolicyRule{Key: RulePasswordCommon})
	}

	if len(failed) > 0 {
		return &PasswordValidationError{Rules: failed}
	}
	return nil
}

// PolicyRules extracts the failed rules from a ValidatePassword error.
func PolicyRules(err error) []PolicyRule {
	var pve *PasswordValidationError
	if errors.As(err, &pve) {
		return pve.Rules
	}
	return nil
}
