package auth

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// HashPool bounds how many hash operations run at once. bcrypt at production
// cost takes hundreds of milliseconds, so unbounded concurrency would starve
// the request goroutines.
type HashPool struct {
	hasher Hasher
	sem    *semaphore.Weighted
}

// NewHashPool wraps hasher with a pool of the given size (minimum 1).
func NewHashPool(hasher Hasher, workers int) *HashPool {
	if workers < 1 {
		workers = 1
	}
	return &HashPool{
		hasher: hasher,
		sem:    semaphore.NewWeighted(int64(workers)),
	}
}

// Hash waits for a free slot, then hashes plaintext. Once started, hashing
// runs to completion.
func (p *HashPool) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire hash slot: %w", err)
	}
	defer p.sem.Release(1)

	return p.hasher.Hash(plaintext)
}

// Verify waits for a free slot, then checks plaintext against hash. A
// cancelled wait counts as a mismatch.
func (p *HashPool) Verify(ctx context.Context, plaintext, hash string) bool {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer p.sem.Release(1)

	return p.hasher.Verify(plaintext, hash)
}
