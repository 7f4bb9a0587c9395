package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/authgate/internal/auth"
	pkglogger "github.com/BradenHooton/authgate/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitByIP_EnforcesLimit(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 3})(okHandler())

	send := func(ip string) int {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req = req.WithContext(pkglogger.WithClientIP(req.Context(), ip))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send("203.0.113.1"), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.1"))

	// Other clients keep their own budget.
	assert.Equal(t, http.StatusOK, send("203.0.113.2"))
}

func TestRateLimitByIP_IgnoresSpoofedHeaders(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 1})(okHandler())

	first := httptest.NewRequest("POST", "/auth/login", nil)
	first.RemoteAddr = "203.0.113.10:5000"
	first.Header.Set("X-Forwarded-For", "1.1.1.1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, first)
	assert.Equal(t, http.StatusOK, w.Code)

	second := httptest.NewRequest("POST", "/auth/login", nil)
	second.RemoteAddr = "203.0.113.10:5001"
	second.Header.Set("X-Forwarded-For", "2.2.2.2")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, second)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

func TestRateLimitByUser_KeysOnUserID(t *testing.T) {
	handler := RateLimitByUser(RateLimitConfig{RequestsPerMinute: 2})(okHandler())

	send := func(userID string) int {
		req := httptest.NewRequest("GET", "/auth/me", nil)
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("user-1"))
	assert.Equal(t, http.StatusOK, send("user-1"))
	assert.Equal(t, http.StatusTooManyRequests, send("user-1"))
	assert.Equal(t, http.StatusOK, send("user-2"))
}
