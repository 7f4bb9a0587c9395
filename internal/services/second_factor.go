package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BradenHooton/authgate/internal/metrics"
	"github.com/BradenHooton/authgate/internal/models"
)

// EnrollmentResult is returned once, when enrollment starts. The secret is
// never shown again.
type EnrollmentResult struct {
	Secret string
	URI    string
	QRCode string // PNG data URL
}

// BeginSecondFactorEnrollment issues a new pending secret for the user,
// replacing any earlier unconfirmed one.
func (s *AuthService) BeginSecondFactorEnrollment(ctx context.Context, userID string) (*EnrollmentResult, error) {
	user, err := s.loadUser(ctx, userID, "begin second factor")
	if err != nil {
		return nil, err
	}
	if user.TwoFactorEnabled {
		return nil, models.ErrSecondFactorAlreadyEnabled
	}

	secret, err := s.totp.GenerateSecret()
	if err != nil {
		return nil, s.internal("begin second factor", err)
	}

	uri, err := s.totp.EnrollmentURI(user.Email, s.totp.Issuer(), secret)
	if err != nil {
		return nil, s.internal("begin second factor", err)
	}

	qr, err := s.totp.EnrollmentQRCode(uri)
	if err != nil {
		return nil, s.internal("begin second factor", err)
	}

	sealed, err := s.totp.SealSecret(secret)
	if err != nil {
		return nil, s.internal("begin second factor", err)
	}

	disabled := false
	if _, err := s.users.Update(ctx, userID, models.UserUpdate{
		TwoFactorSecret:  &sealed,
		TwoFactorEnabled: &disabled,
	}); err != nil {
		return nil, s.internal("begin second factor", err)
	}

	s.metrics.RecordAuthEvent("second_factor_begin", metrics.OutcomeSuccess)
	s.logger.Info("second factor enrollment started", slog.String("user_id", userID))

	return &EnrollmentResult{Secret: secret, URI: uri, QRCode: qr}, nil
}

// ConfirmSecondFactorEnrollment enables the second factor once the user
// proves possession of the pending secret.
func (s *AuthService) ConfirmSecondFactorEnrollment(ctx context.Context, userID, code string) error {
	user, err := s.loadUser(ctx, userID, "confirm second factor")
	if err != nil {
		return err
	}
	if user.TwoFactorEnabled {
		return models.ErrSecondFactorAlreadyEnabled
	}
	if user.TwoFactorSecret == nil {
		return models.ErrSecondFactorNotEnrolled
	}

	ok, err := s.checkSecondFactor(user, code)
	if err != nil {
		return s.internal("confirm second factor", err)
	}
	if !ok {
		s.metrics.RecordAuthEvent("second_factor_confirm", metrics.OutcomeFailure)
		return models.ErrSecondFactorInvalid
	}

	enabled := true
	if _, err := s.users.Update(ctx, userID, models.UserUpdate{TwoFactorEnabled: &enabled}); err != nil {
		return s.internal("confirm second factor", err)
	}

	s.metrics.RecordAuthEvent("second_factor_confirm", metrics.OutcomeSuccess)
	s.audit.LogAccountAction(ctx, "second_factor_enabled", userID, nil)
	return nil
}

// DisableSecondFactor turns the second factor off. A valid current code is required.
func (s *AuthService) DisableSecondFactor(ctx context.Context, userID, code string) error {
	user, err := s.loadUser(ctx, userID, "disable second factor")
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return models.ErrSecondFactorNotEnrolled
	}

	ok, err := s.checkSecondFactor(user, code)
	if err != nil {
		return s.internal("disable second factor", err)
	}
	if !ok {
		s.metrics.RecordAuthEvent("second_factor_disable", metrics.OutcomeFailure)
		return models.ErrSecondFactorInvalid
	}

	disabled := false
	if _, err := s.users.Update(ctx, userID, models.UserUpdate{
		TwoFactorEnabled:     &disabled,
		ClearTwoFactorSecret: true,
	}); err != nil {
		return s.internal("disable second factor", err)
	}

	s.metrics.RecordAuthEvent("second_factor_disable", metrics.OutcomeSuccess)
	s.audit.LogAccountAction(ctx, "second_factor_disabled", userID, nil)
	return nil
}

func (s *AuthService) loadUser(ctx context.Context, userID, op string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, s.internal(op, err)
	}
	return user, nil
}
