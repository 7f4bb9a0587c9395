package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/BradenHooton/authgate/internal/models"
	pkghttp "github.com/BradenHooton/authgate/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserIDContextKey is the key for storing the authenticated user id in context
	UserIDContextKey contextKey = "user_id"
)

// AccessAuthenticator resolves an access token to a user id.
type AccessAuthenticator interface {
	AuthenticateAccess(accessToken string) (string, error)
}

// AuthMiddleware validates the bearer access token and injects the user id into context.
func AuthMiddleware(authenticator AccessAuthenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "missing or malformed authorization header")
				return
			}

			userID, err := authenticator.AuthenticateAccess(token)
			if err != nil {
				if errors.Is(err, models.ErrTokenExpired) {
					pkghttp.WriteError(w, http.StatusUnauthorized, "token_expired", "access token expired")
					return
				}
				pkghttp.WriteUnauthorized(w, "invalid access token")
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// GetUserIDFromContext extracts the authenticated user id from the request context
func GetUserIDFromContext(r *http.Request) string {
	userID, _ := r.Context().Value(UserIDContextKey).(string)
	return userID
}
