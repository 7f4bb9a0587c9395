package handlers

import (
	"time"

	"github.com/BradenHooton/authgate/internal/models"
	pkghttp "github.com/BradenHooton/authgate/pkg/http"
)

// Request DTOs

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	Delivery string `json:"delivery,omitempty" validate:"omitempty,oneof=email out_of_band"`
}

// ActivateRequest carries the activation token and the code sent with it
type ActivateRequest struct {
	Token string `json:"token" validate:"required"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Code     string `json:"code,omitempty" validate:"omitempty,len=6,numeric"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=72,nefield=CurrentPassword"`
}

// SecondFactorCodeRequest carries a TOTP code
type SecondFactorCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// Response DTOs

// UserResponse is the public view of a user
type UserResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	CreatedAt        time.Time `json:"created_at"`
}

func newUserResponse(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		TwoFactorEnabled: u.TwoFactorEnabled,
		CreatedAt:        u.CreatedAt,
	}
}

// RegisterResponse is returned after signup. Token and code are only set for
// out-of-band delivery.
type RegisterResponse struct {
	State           string `json:"state"`
	Message         string `json:"message"`
	ActivationToken string `json:"activation_token,omitempty"`
	ActivationCode  string `json:"activation_code,omitempty"`
}

// ActivateResponse is returned once the account exists
type ActivateResponse struct {
	State   string        `json:"state"`
	Message string        `json:"message"`
	User    *UserResponse `json:"user"`
}

// AuthResponse carries a fresh token pair
type AuthResponse struct {
	State        string        `json:"state"`
	Message      string        `json:"message"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         *UserResponse `json:"user"`
}

// ChallengeResponse is the error body when login needs a second-factor code
type ChallengeResponse struct {
	pkghttp.ErrorResponse
	State string `json:"state"`
}

// EnrollmentResponse is returned once when second-factor setup starts
type EnrollmentResponse struct {
	Message string `json:"message"`
	Secret  string `json:"secret"`  // Base32, for manual entry
	URI     string `json:"uri"`     // otpauth:// URI
	QRCode  string `json:"qr_code"` // PNG data URL
}
