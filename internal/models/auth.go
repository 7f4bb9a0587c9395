package models

// Token purposes. Each purpose is signed with its own secret and carried as the audience.
const (
	TokenPurposeActivation = "activation"
	TokenPurposeAccess     = "access"
	TokenPurposeRefresh    = "refresh"
)

// ActivationPayload binds a draft account to a one-time code. It only ever
// travels inside a signed activation token.
type ActivationPayload struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Code         string `json:"activation_code"`
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID string `json:"user_id"`
}

// RefreshClaims is the payload of a refresh token. RefreshTokenID is matched
// against the refresh session store on rotation.
type RefreshClaims struct {
	UserID         string `json:"user_id"`
	RefreshTokenID string `json:"refresh_token_id"`
}

// TokenPair is an access/refresh token pair issued at login and on rotation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
