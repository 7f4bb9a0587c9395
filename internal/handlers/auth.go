package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/BradenHooton/authgate/internal/auth"
	"github.com/BradenHooton/authgate/internal/models"
	"github.com/BradenHooton/authgate/internal/services"
	pkghttp "github.com/BradenHooton/authgate/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Signup(ctx context.Context, in services.SignupInput) (*services.SignupResult, error)
	Activate(ctx context.Context, token, code string) (*models.User, error)
	Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, current, next string) error
	CurrentUser(ctx context.Context, userID string) (*models.User, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
	resp    *Responder
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, resp *Responder) *AuthHandler {
	return &AuthHandler{service: service, resp: resp}
}

// Register starts signup and sends the activation mail
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.resp.Decode(w, r, &req) {
		return
	}

	delivery := services.DeliveryEmail
	if req.Delivery == string(services.DeliveryOutOfBand) {
		delivery = services.DeliveryOutOfBand
	}

	result, err := h.service.Signup(r.Context(), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Delivery: delivery,
	})
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusAccepted, RegisterResponse{
		State:           string(result.State),
		Message:         h.resp.Message(r, models.EventRegisterSuccess),
		ActivationToken: result.ActivationToken,
		ActivationCode:  result.ActivationCode,
	})
}

// Activate creates the account from an activation token and code
// @Router /auth/activate [post]
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req ActivateRequest
	if !h.resp.Decode(w, r, &req) {
		return
	}

	user, err := h.service.Activate(r.Context(), req.Token, req.Code)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, ActivateResponse{
		State:   string(services.StateActive),
		Message: h.resp.Message(r, models.EventActivateSuccess),
		User:    newUserResponse(user),
	})
}

// Login handles user login
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.resp.Decode(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Code:     req.Code,
	})
	if err != nil {
		if errors.Is(err, models.ErrSecondFactorRequired) {
			key := models.MessageKey(err)
			pkghttp.WriteJSON(w, http.StatusUnauthorized, ChallengeResponse{
				ErrorResponse: pkghttp.ErrorResponse{
					Error:   "two_factor_required",
					Message: h.resp.Message(r, key),
				},
				State: string(services.StateAwaitingSecondFactor),
			})
			return
		}
		h.resp.WriteError(w, r, err)
		return
	}

	h.writeAuth(w, r, result, models.EventLoginSuccess)
}

// RefreshToken rotates the refresh token and returns a new pair
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !h.resp.Decode(w, r, &req) {
		return
	}

	result, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	h.writeAuth(w, r, result, models.EventRefreshSuccess)
}

// Logout ends the caller's refresh lineage
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r)
	if userID == "" {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, pkghttp.MessageResponse{
		Message: h.resp.Message(r, models.EventLogoutSuccess),
	})
}

// Me returns the authenticated user
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r)
	if userID == "" {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, newUserResponse(user))
}

// ChangePassword replaces the password; every session must sign in again
// @Security BearerAuth
// @Router /auth/password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r)
	if userID == "" {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req ChangePasswordRequest
	if !h.resp.Decode(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, pkghttp.MessageResponse{
		Message: h.resp.Message(r, models.EventPasswordChanged),
	})
}

func (h *AuthHandler) writeAuth(w http.ResponseWriter, r *http.Request, result *services.AuthResult, event string) {
	pkghttp.WriteJSON(w, http.StatusOK, AuthResponse{
		State:        string(result.State),
		Message:      h.resp.Message(r, event),
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		User:         newUserResponse(result.User),
	})
}
