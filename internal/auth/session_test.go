package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BradenHooton/authgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	records map[string]string
	err     error
}

func (s *recordingStore) Insert(_ context.Context, userID, tokenID string) error {
	if s.err != nil {
		return s.err
	}
	if s.records == nil {
		s.records = map[string]string{}
	}
	s.records[userID] = tokenID
	return nil
}

func newTestIssuer(store RefreshRecorder, opts ...CodecOption) *SessionIssuer {
	return NewSessionIssuer(
		NewCodec[models.AccessClaims](testAccessSecret, 15*time.Minute, models.TokenPurposeAccess, opts...),
		NewCodec[models.RefreshClaims](testRefreshSecret, 7*24*time.Hour, models.TokenPurposeRefresh, opts...),
		store,
	)
}

func TestSessionIssuer_Issue(t *testing.T) {
	store := &recordingStore{}
	issuer := newTestIssuer(store)

	pair, err := issuer.Issue(context.Background(), "u1")
	require.NoError(t, err)

	access, err := issuer.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", access.UserID)

	refresh, err := issuer.Rotate(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", refresh.UserID)
	assert.Equal(t, store.records["u1"], refresh.RefreshTokenID)
}

func TestSessionIssuer_Issue_FreshIDEachTime(t *testing.T) {
	store := &recordingStore{}
	issuer := newTestIssuer(store)

	first, err := issuer.Issue(context.Background(), "u1")
	require.NoError(t, err)
	firstID := store.records["u1"]

	second, err := issuer.Issue(context.Background(), "u1")
	require.NoError(t, err)

	assert.NotEqual(t, firstID, store.records["u1"])
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestSessionIssuer_Issue_StoreFailure(t *testing.T) {
	issuer := newTestIssuer(&recordingStore{err: models.ErrStoreUnavailable})

	pair, err := issuer.Issue(context.Background(), "u1")
	assert.Nil(t, pair)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestSessionIssuer_TokensNotInterchangeable(t *testing.T) {
	issuer := newTestIssuer(&recordingStore{})

	pair, err := issuer.Issue(context.Background(), "u1")
	require.NoError(t, err)

	_, err = issuer.Rotate(pair.AccessToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)

	_, err = issuer.ParseAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestSessionIssuer_Rotate_Expired(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(&recordingStore{}, WithClock(clock.Now))

	pair, err := issuer.Issue(context.Background(), "u1")
	require.NoError(t, err)

	clock.Advance(8 * 24 * time.Hour)
	_, err = issuer.Rotate(pair.RefreshToken)
	assert.True(t, errors.Is(err, models.ErrTokenExpired))
}
