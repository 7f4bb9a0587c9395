package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"math/big"
	"time"
)

// FailureDelay pads failed authentication attempts to a minimum duration
// plus random jitter, so unknown-user and wrong-password paths look alike.
type FailureDelay struct {
	base   time.Duration
	jitter time.Duration
}

// NewFailureDelay creates a FailureDelay. A zero base and jitter disables it.
func NewFailureDelay(base, jitter time.Duration) *FailureDelay {
	return &FailureDelay{base: base, jitter: jitter}
}

// WaitFrom sleeps until at least base+jitter has elapsed since start, or ctx is done.
func (d *FailureDelay) WaitFrom(ctx context.Context, start time.Time) {
	if d == nil || (d.base <= 0 && d.jitter <= 0) {
		return
	}

	target := d.base
	if d.jitter > 0 {
		if n, err := cryptoRandUint64(); err == nil {
			target += time.Duration(n % uint64(d.jitter))
		}
	}

	remaining := target - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func cryptoRandUint64() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// GenerateNumericCode returns a uniformly random decimal code of the given length.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", fmt.Errorf("code length must be between 1 and 18, got %d", digits)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

// EqualCodes compares two codes in constant time.
func EqualCodes(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
