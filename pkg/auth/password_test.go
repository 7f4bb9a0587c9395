package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		shouldFail bool
		rule       string
	}{
		{name: "valid strong password", password: "SecureP@ss123"},
		{name: "valid short mixed password", password: "Abc12345!"},
		{name: "valid with multiple special chars", password: "Secure#P@ssw0rd"},
		{name: "too short", password: "Pass@1", shouldFail: true, rule: RulePasswordMinLength},
		{name: "missing uppercase", password: "securepass@123", shouldFail: true, rule: RulePasswordUppercase},
		{name: "missing lowercase", password: "SECUREPASS@123", shouldFail: true, rule: RulePasswordLowercase},
		{name: "missing digit", password: "SecurePass@xyz", shouldFail: true, rule: RulePasswordDigit},
		{name: "missing special character", password: "SecurePass123", shouldFail: true, rule: RulePasswordSpecial},
		{name: "common password rejected", password: "Password123!", shouldFail: true, rule: RulePasswordCommon},
		{name: "longer than bcrypt input", password: "Aa1!" + strings.Repeat("x", 70), shouldFail: true, rule: RulePasswordMaxLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if !tt.shouldFail {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, "invalid password", err.Error())
			var keys []string
			for _, rule := range PolicyRules(err) {
				keys = append(keys, rule.Key)
			}
			assert.Contains(t, keys, tt.rule)
		})
	}
}

func TestValidatePassword_LengthRuleCarriesLimit(t *testing.T) {
	rules := PolicyRules(ValidatePassword("Aa1!"))

	require.NotEmpty(t, rules)
	assert.Equal(t, RulePasswordMinLength, rules[0].Key)
	assert.Equal(t, []string{"8"}, rules[0].Params)
}

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("Abc12345!")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$2a$04$"))
	assert.True(t, h.Verify("Abc12345!", hash))
	assert.False(t, h.Verify("abc12345!", hash))
}

func TestBcryptHasher_SaltedHashesDiffer(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("Abc12345!")
	require.NoError(t, err)
	second, err := h.Hash("Abc12345!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("Abc12345!", ""))
	assert.False(t, h.Verify("Abc12345!", "not-a-bcrypt-hash"))
	assert.False(t, h.Verify("Abc12345!", "$2a$04$short"))
}

func TestBcryptHasher_EmptyPassword(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost).Hash("")
	assert.Error(t, err)
}

func TestNewBcryptHasher_CostOutOfRange(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(0).Cost())
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(99).Cost())
	assert.Equal(t, 10, NewBcryptHasher(10).Cost())
}
