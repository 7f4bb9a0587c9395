package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/authgate/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// signedClaims wraps a purpose-specific payload in the registered JWT claims.
type signedClaims[T any] struct {
	Payload T `json:"data"`
	jwt.RegisteredClaims
}

// CodecOption customises a Codec.
type CodecOption func(*codecOptions)

type codecOptions struct {
	now func() time.Time
}

// WithClock overrides the time source used for issuance and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(o *codecOptions) {
		o.now = now
	}
}

// Codec signs and verifies HS256 tokens for a single purpose. The purpose is
// carried as the audience, so a token minted by one codec never verifies
// under another even if secrets were shared.
type Codec[T any] struct {
	secret  []byte
	ttl     time.Duration
	purpose string
	now     func() time.Time
}

// NewCodec creates a codec for purpose signed with secret. Tokens expire ttl after issuance.
func NewCodec[T any](secret string, ttl time.Duration, purpose string, opts ...CodecOption) *Codec[T] {
	o := codecOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Codec[T]{
		secret:  []byte(secret),
		ttl:     ttl,
		purpose: purpose,
		now:     o.now,
	}
}

// TTL returns the lifetime of tokens minted by this codec.
func (c *Codec[T]) TTL() time.Duration {
	return c.ttl
}

// Sign mints a token carrying payload.
func (c *Codec[T]) Sign(payload T) (string, error) {
	now := c.now()
	claims := &signedClaims[T]{
		Payload: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{c.purpose},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", c.purpose, err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, audience and expiry, and returns the payload.
// Failures are models.ErrTokenExpired or models.ErrTokenInvalid.
func (c *Codec[T]) Verify(tokenString string) (T, error) {
	var zero T
	claims := &signedClaims[T]{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(c.purpose),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return zero, fmt.Errorf("%w: %w", models.ErrTokenExpired, err)
		}
		return zero, fmt.Errorf("%w: %w", models.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return zero, models.ErrTokenInvalid
	}

	return claims.Payload, nil
}
