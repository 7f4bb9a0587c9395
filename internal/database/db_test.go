package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/BradenHooton/authgate/internal/config"
	"github.com/BradenHooton/authgate/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPostgresError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "no rows", err: pgx.ErrNoRows, want: models.ErrNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), want: models.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: models.ErrDuplicateUser},
		{name: "not null violation", err: &pgconn.PgError{Code: "23502", ColumnName: "email"}, want: models.ErrValidationFailed},
		{name: "other", err: other, want: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapPostgresError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestPoolConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host: "db.internal", Port: 5432, User: "authgate", Password: "pw", Name: "authgate", SSLMode: "disable",
		MaxConns:         10,
		MinConns:         2,
		MaxConnLifetime:  5 * time.Minute,
		MaxConnIdleTime:  time.Minute,
		ConnectTimeout:   3 * time.Second,
		StatementTimeout: 1500 * time.Millisecond,
	}

	pc, err := poolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, int32(10), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, 3*time.Second, pc.ConnConfig.ConnectTimeout)
	assert.Equal(t, "authgate", pc.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "1500", pc.ConnConfig.RuntimeParams["statement_timeout"])
	assert.Equal(t, "db.internal", pc.ConnConfig.Host)
}

func TestPoolConfig_NoStatementTimeout(t *testing.T) {
	pc, err := poolConfig(&config.DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"})
	require.NoError(t, err)

	_, set := pc.ConnConfig.RuntimeParams["statement_timeout"]
	assert.False(t, set)
}
