package handlers

import (
	"context"
	"net/http"

	"github.com/BradenHooton/authgate/internal/auth"
	"github.com/BradenHooton/authgate/internal/models"
	"github.com/BradenHooton/authgate/internal/services"
	pkghttp "github.com/BradenHooton/authgate/pkg/http"
)

// SecondFactorServiceInterface covers TOTP enrollment for an authenticated user
type SecondFactorServiceInterface interface {
	BeginSecondFactorEnrollment(ctx context.Context, userID string) (*services.EnrollmentResult, error)
	ConfirmSecondFactorEnrollment(ctx context.Context, userID, code string) error
	DisableSecondFactor(ctx context.Context, userID, code string) error
}

// SecondFactorHandler handles second-factor enrollment requests
type SecondFactorHandler struct {
	service SecondFactorServiceInterface
	resp    *Responder
}

func NewSecondFactorHandler(service SecondFactorServiceInterface, resp *Responder) *SecondFactorHandler {
	return &SecondFactorHandler{service: service, resp: resp}
}

// Enroll handles POST /auth/2fa/enroll. The secret is shown only in this response.
func (h *SecondFactorHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r)
	if userID == "" {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	result, err := h.service.BeginSecondFactorEnrollment(r.Context(), userID)
	if err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, EnrollmentResponse{
		Message: h.resp.Message(r, models.EventTwoFactorPending),
		Secret:  result.Secret,
		URI:     result.URI,
		QRCode:  result.QRCode,
	})
}

// Confirm handles POST /auth/2fa/confirm
func (h *SecondFactorHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.withCode(w, r, h.service.ConfirmSecondFactorEnrollment, models.EventTwoFactorEnabled)
}

// Disable handles POST /auth/2fa/disable
func (h *SecondFactorHandler) Disable(w http.ResponseWriter, r *http.Request) {
	h.withCode(w, r, h.service.DisableSecondFactor, models.EventTwoFactorOff)
}

func (h *SecondFactorHandler) withCode(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, code string) error, event string) {
	userID := auth.GetUserIDFromContext(r)
	if userID == "" {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req SecondFactorCodeRequest
	if !h.resp.Decode(w, r, &req) {
		return
	}

	if err := op(r.Context(), userID, req.Code); err != nil {
		h.resp.WriteError(w, r, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, pkghttp.MessageResponse{
		Message: h.resp.Message(r, event),
	})
}
