package routes_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/authgate/internal/handlers"
	"github.com/BradenHooton/authgate/internal/models"
	"github.com/BradenHooton/authgate/internal/routes"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

type staticAuthenticator map[string]string

func (s staticAuthenticator) AuthenticateAccess(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

func newRouter(t *testing.T) http.Handler {
	resp := handlers.NewTestResponder(t)
	mock := &handlers.MockAuthService{
		CurrentUserFunc: func(ctx context.Context, userID string) (*models.User, error) {
			return &models.User{ID: userID, Email: "a@x.com", Name: "Ada"}, nil
		},
	}

	router := chi.NewRouter()
	routes.RegisterRoutes(router,
		handlers.NewAuthHandler(mock, resp),
		handlers.NewSecondFactorHandler(mock, resp),
		staticAuthenticator{"good-token": "user-1"},
	)
	return router
}

func TestRoutes_ProtectedRequireBearer(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name       string
		auth       string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer good-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/auth/me", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRoutes_NoCache(t *testing.T) {
	router := newRouter(t)

	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{Email: "a@x.com", Password: "x"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-cache")
}

func TestRoutes_UnknownPath(t *testing.T) {
	router := newRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/auth/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
