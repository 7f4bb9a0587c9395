package auth

import (
	"context"
	"fmt"

	"github.com/BradenHooton/authgate/internal/models"
	"github.com/google/uuid"
)

// RefreshRecorder persists the single active refresh-token id for a user.
type RefreshRecorder interface {
	Insert(ctx context.Context, userID, tokenID string) error
}

// SessionIssuer mints access/refresh pairs and records the refresh lineage.
type SessionIssuer struct {
	access  *Codec[models.AccessClaims]
	refresh *Codec[models.RefreshClaims]
	store   RefreshRecorder
}

// NewSessionIssuer creates a SessionIssuer.
func NewSessionIssuer(access *Codec[models.AccessClaims], refresh *Codec[models.RefreshClaims], store RefreshRecorder) *SessionIssuer {
	return &SessionIssuer{
		access:  access,
		refresh: refresh,
		store:   store,
	}
}

// Issue mints a pair for userID under a fresh refresh-token id and records
// that id as the only valid one. Nothing is returned unless the record is written.
func (si *SessionIssuer) Issue(ctx context.Context, userID string) (*models.TokenPair, error) {
	tokenID := uuid.New().String()

	accessToken, err := si.access.Sign(models.AccessClaims{UserID: userID})
	if err != nil {
		return nil, err
	}

	refreshToken, err := si.refresh.Sign(models.RefreshClaims{UserID: userID, RefreshTokenID: tokenID})
	if err != nil {
		return nil, err
	}

	if err := si.store.Insert(ctx, userID, tokenID); err != nil {
		return nil, fmt.Errorf("failed to record refresh session: %w", err)
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Rotate verifies a refresh token and returns its claims. Checking the id
// against the store is left to the caller.
func (si *SessionIssuer) Rotate(refreshToken string) (*models.RefreshClaims, error) {
	claims, err := si.refresh.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.RefreshTokenID == "" {
		return nil, models.ErrTokenInvalid
	}
	return &claims, nil
}

// ParseAccessToken verifies an access token and returns its claims.
func (si *SessionIssuer) ParseAccessToken(accessToken string) (*models.AccessClaims, error) {
	claims, err := si.access.Verify(accessToken)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, models.ErrTokenInvalid
	}
	return &claims, nil
}
