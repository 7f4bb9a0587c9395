package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/authgate/internal/auth"
	"github.com/BradenHooton/authgate/internal/i18n"
	"github.com/BradenHooton/authgate/internal/models"
	"github.com/BradenHooton/authgate/internal/services"
	pkghttp "github.com/BradenHooton/authgate/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewTestRequest creates an HTTP request with a JSON body
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds an authenticated user id to the request context
func WithAuthContext(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

// NewTestResponder builds a Responder with the bundled catalogs and a silent logger
func NewTestResponder(t *testing.T) *Responder {
	t.Helper()
	tr, err := i18n.New()
	require.NoError(t, err)
	resp, err := NewResponder(tr, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.NoError(t, err)
	return resp
}

// AssertJSONResponse checks status and content type, then decodes the body into target
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks status and the machine-readable error code
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface and SecondFactorServiceInterface
type MockAuthService struct {
	SignupFunc         func(ctx context.Context, in services.SignupInput) (*services.SignupResult, error)
	ActivateFunc       func(ctx context.Context, token, code string) (*models.User, error)
	LoginFunc          func(ctx context.Context, in services.LoginInput) (*services.AuthResult, error)
	RefreshFunc        func(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	LogoutFunc         func(ctx context.Context, userID string) error
	ChangePasswordFunc func(ctx context.Context, userID, current, next string) error
	CurrentUserFunc    func(ctx context.Context, userID string) (*models.User, error)

	BeginEnrollmentFunc   func(ctx context.Context, userID string) (*services.EnrollmentResult, error)
	ConfirmEnrollmentFunc func(ctx context.Context, userID, code string) error
	DisableFunc           func(ctx context.Context, userID, code string) error
}

func (m *MockAuthService) Signup(ctx context.Context, in services.SignupInput) (*services.SignupResult, error) {
	if m.SignupFunc == nil {
		return &services.SignupResult{State: services.StatePendingActivation}, nil
	}
	return m.SignupFunc(ctx, in)
}

func (m *MockAuthService) Activate(ctx context.Context, token, code string) (*models.User, error) {
	if m.ActivateFunc == nil {
		return nil, models.ErrActivationInvalid
	}
	return m.ActivateFunc(ctx, token, code)
}

func (m *MockAuthService) Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInvalidCredential
	}
	return m.LoginFunc(ctx, in)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error) {
	if m.RefreshFunc == nil {
		return nil, models.ErrRefreshDenied
	}
	return m.RefreshFunc(ctx, refreshToken)
}

func (m *MockAuthService) Logout(ctx context.Context, userID string) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, userID)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if m.ChangePasswordFunc == nil {
		return nil
	}
	return m.ChangePasswordFunc(ctx, userID, current, next)
}

func (m *MockAuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	if m.CurrentUserFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.CurrentUserFunc(ctx, userID)
}

func (m *MockAuthService) BeginSecondFactorEnrollment(ctx context.Context, userID string) (*services.EnrollmentResult, error) {
	if m.BeginEnrollmentFunc == nil {
		return nil, models.ErrSecondFactorAlreadyEnabled
	}
	return m.BeginEnrollmentFunc(ctx, userID)
}

func (m *MockAuthService) ConfirmSecondFactorEnrollment(ctx context.Context, userID, code string) error {
	if m.ConfirmEnrollmentFunc == nil {
		return nil
	}
	return m.ConfirmEnrollmentFunc(ctx, userID, code)
}

func (m *MockAuthService) DisableSecondFactor(ctx context.Context, userID, code string) error {
	if m.DisableFunc == nil {
		return nil
	}
	return m.DisableFunc(ctx, userID, code)
}

var (
	_ AuthServiceInterface         = (*MockAuthService)(nil)
	_ SecondFactorServiceInterface = (*MockAuthService)(nil)
)
