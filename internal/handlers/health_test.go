package handlers_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/authgate/internal/handlers"
	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	up := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	tests := []struct {
		name       string
		checks     map[string]handlers.HealthCheck
		wantStatus int
		wantState  string
	}{
		{"all up", map[string]handlers.HealthCheck{"database": up, "redis": up}, http.StatusOK, "healthy"},
		{"redis down", map[string]handlers.HealthCheck{"database": up, "redis": down}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandler(tt.checks, time.Second, logger)

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest("GET", "/health", nil))

			var resp handlers.HealthResponse
			handlers.AssertJSONResponse(t, w, tt.wantStatus, &resp)
			assert.Equal(t, tt.wantState, resp.Status)
			assert.Len(t, resp.Dependencies, 2)
		})
	}
}
