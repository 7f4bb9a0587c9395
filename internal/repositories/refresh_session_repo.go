package repositories

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/authgate/internal/metrics"
	"github.com/BradenHooton/authgate/internal/models"
	"github.com/redis/go-redis/v9"
)

// RefreshSessionRepository keeps the single live refresh-token id per user in
// Redis. Writing a new id overwrites the previous one, which is what rotation means.
type RefreshSessionRepository struct {
	client    redis.UniversalClient
	prefix    string
	ttl       time.Duration
	opTimeout time.Duration
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
}

// NewRefreshSessionRepository creates a new RefreshSessionRepository. ttl must
// match the refresh token lifetime.
func NewRefreshSessionRepository(client redis.UniversalClient, prefix string, ttl, opTimeout time.Duration, m metrics.MetricsCollector, logger *slog.Logger) *RefreshSessionRepository {
	if opTimeout <= 0 {
		opTimeout = 500 * time.Millisecond
	}
	if m == nil {
		m = metrics.Noop{}
	}
	return &RefreshSessionRepository{
		client:    client,
		prefix:    prefix,
		ttl:       ttl,
		opTimeout: opTimeout,
		metrics:   m,
		logger:    logger,
	}
}

func (r *RefreshSessionRepository) key(userID string) string {
	return r.prefix + "user-" + userID
}

// Insert records tokenID as the only valid refresh-token id for userID.
func (r *RefreshSessionRepository) Insert(ctx context.Context, userID, tokenID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	start := time.Now()
	err := r.client.Set(ctx, r.key(userID), tokenID, r.ttl).Err()
	r.observe("insert", start, err)
	if err != nil {
		return r.unavailable("insert", userID, err)
	}
	return nil
}

// Validate reports whether tokenID is the recorded id for userID. A missing
// record is (false, nil); only transport failures return an error.
func (r *RefreshSessionRepository) Validate(ctx context.Context, userID, tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	start := time.Now()
	stored, err := r.client.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		r.observe("validate", start, nil)
		return false, nil
	}
	r.observe("validate", start, err)
	if err != nil {
		return false, r.unavailable("validate", userID, err)
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(tokenID)) == 1, nil
}

// Invalidate removes the record for userID. Removing an absent record is not an error.
func (r *RefreshSessionRepository) Invalidate(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	start := time.Now()
	err := r.client.Del(ctx, r.key(userID)).Err()
	r.observe("invalidate", start, err)
	if err != nil {
		return r.unavailable("invalidate", userID, err)
	}
	return nil
}

// Ping checks the connection.
func (r *RefreshSessionRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *RefreshSessionRepository) observe(op string, start time.Time, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	r.metrics.RecordStoreOp(op, outcome, time.Since(start))
}

func (r *RefreshSessionRepository) unavailable(op, userID string, err error) error {
	r.logger.Warn("refresh session store call failed",
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.Any("error", err),
	)
	return fmt.Errorf("%w: %s: %w", models.ErrStoreUnavailable, op, err)
}
