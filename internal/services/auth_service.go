package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/authgate/internal/auth"
	"github.com/BradenHooton/authgate/internal/metrics"
	"github.com/BradenHooton/authgate/internal/models"
	pkgauth "github.com/BradenHooton/authgate/pkg/auth"
	pkglogger "github.com/BradenHooton/authgate/pkg/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

const activationCodeDigits = 6

// FlowState is where a caller stands in the account lifecycle after an operation.
type FlowState string

const (
	StateAnonymous            FlowState = "anonymous"
	StatePendingActivation    FlowState = "pending_activation"
	StateActive               FlowState = "active"
	StateAwaitingSecondFactor FlowState = "awaiting_second_factor"
	StateAuthenticated        FlowState = "authenticated"
)

// Delivery selects how the activation code reaches the user.
type Delivery string

const (
	// DeliveryEmail sends token and code by email only.
	DeliveryEmail Delivery = "email"
	// DeliveryOutOfBand also returns token and code to the caller, which
	// forwards the code over another channel.
	DeliveryOutOfBand Delivery = "out_of_band"
)

// UserRepository is the durable user store.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, draft *models.UserDraft) (*models.User, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
}

// RefreshSessionStore holds the single live refresh-token id per user.
type RefreshSessionStore interface {
	Insert(ctx context.Context, userID, tokenID string) error
	Validate(ctx context.Context, userID, tokenID string) (bool, error)
	Invalidate(ctx context.Context, userID string) error
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Delivery Delivery
}

// SignupResult carries the activation token and code only for out-of-band delivery.
type SignupResult struct {
	State           FlowState
	ActivationToken string
	ActivationCode  string
}

type LoginInput struct {
	Email    string
	Password string
	Code     string
}

type AuthResult struct {
	State  FlowState
	Tokens *models.TokenPair
	User   *models.User
}

// AuthServiceDeps wires the collaborators of AuthService.
type AuthServiceDeps struct {
	Users      UserRepository
	Sessions   RefreshSessionStore
	Issuer     *auth.SessionIssuer
	Activation *auth.Codec[models.ActivationPayload]
	Hashes     *pkgauth.HashPool
	TOTP       *auth.TOTPManager
	Mailer     MailDispatcher
	Audit      *pkglogger.AuditLogger
	Metrics    metrics.MetricsCollector
	Logger     *slog.Logger

	// StoreRetryBackoff is the pause before the single retry of a failed store lookup.
	StoreRetryBackoff time.Duration
	FailureDelay      *auth.FailureDelay
	Now               func() time.Time
}

// AuthService drives signup, activation, login, second factor, refresh and logout.
type AuthService struct {
	users        UserRepository
	sessions     RefreshSessionStore
	issuer       *auth.SessionIssuer
	activation   *auth.Codec[models.ActivationPayload]
	hashes       *pkgauth.HashPool
	totp         *auth.TOTPManager
	mailer       MailDispatcher
	audit        *pkglogger.AuditLogger
	metrics      metrics.MetricsCollector
	logger       *slog.Logger
	retryBackoff time.Duration
	failureDelay *auth.FailureDelay
	now          func() time.Time

	dummyOnce sync.Once
	dummy     string
}

func NewAuthService(deps AuthServiceDeps) *AuthService {
	s := &AuthService{
		users:        deps.Users,
		sessions:     deps.Sessions,
		issuer:       deps.Issuer,
		activation:   deps.Activation,
		hashes:       deps.Hashes,
		totp:         deps.TOTP,
		mailer:       deps.Mailer,
		audit:        deps.Audit,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		retryBackoff: deps.StoreRetryBackoff,
		failureDelay: deps.FailureDelay,
		now:          deps.Now,
	}
	if s.metrics == nil {
		s.metrics = metrics.Noop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.audit == nil {
		s.audit = pkglogger.NewAuditLogger(s.logger)
	}
	return s
}

// Signup starts a pending account. Nothing is persisted: the draft travels
// inside the signed activation token mailed to the user.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	var rules []models.FieldRule
	if name == "" {
		rules = append(rules, models.FieldRule{Field: "name", Key: models.RuleRequired})
	}
	if email == "" {
		rules = append(rules, models.FieldRule{Field: "email", Key: models.RuleRequired})
	}
	if err := pkgauth.ValidatePassword(in.Password); err != nil {
		rules = append(rules, passwordRules("password", err)...)
	}
	if len(rules) > 0 {
		s.metrics.RecordAuthEvent("signup", metrics.OutcomeFailure)
		return nil, models.NewRuleError(rules...)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		s.metrics.RecordAuthEvent("signup", metrics.OutcomeFailure)
		s.logger.Info("signup rejected: email already registered", slog.String("email", pkglogger.SanitizedEmail(email)))
		return nil, models.ErrDuplicateUser
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, s.internal("signup", err)
	}

	hash, err := s.hashes.Hash(ctx, in.Password)
	if err != nil {
		return nil, s.internal("signup", err)
	}

	code, err := auth.GenerateNumericCode(activationCodeDigits)
	if err != nil {
		return nil, s.internal("signup", err)
	}

	token, err := s.activation.Sign(models.ActivationPayload{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Code:         code,
	})
	if err != nil {
		return nil, s.internal("signup", err)
	}

	if err := s.mailer.SendActivation(ctx, email, token, code); err != nil {
		s.metrics.RecordAuthEvent("signup", metrics.OutcomeError)
		s.logger.Error("failed to send activation email",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %w", models.ErrNotificationFailed, err)
	}

	s.metrics.RecordAuthEvent("signup", metrics.OutcomeSuccess)
	s.logger.Info("signup pending activation", slog.String("email", pkglogger.SanitizedEmail(email)))

	result := &SignupResult{State: StatePendingActivation}
	if in.Delivery == DeliveryOutOfBand {
		result.ActivationToken = token
		result.ActivationCode = code
	}
	return result, nil
}

// Activate creates the user described by a valid activation token whose code matches.
func (s *AuthService) Activate(ctx context.Context, token, code string) (*models.User, error) {
	payload, err := s.activation.Verify(token)
	if err != nil {
		s.metrics.RecordAuthEvent("activate", metrics.OutcomeFailure)
		return nil, fmt.Errorf("%w: %w", models.ErrActivationInvalid, err)
	}

	if !auth.EqualCodes(payload.Code, strings.TrimSpace(code)) {
		s.metrics.RecordAuthEvent("activate", metrics.OutcomeFailure)
		s.audit.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     "activate",
			Email:         payload.Email,
			FailureReason: "code_mismatch",
		})
		return nil, models.ErrActivationInvalid
	}

	// Re-check: the same token may be replayed after a successful activation.
	if _, err := s.users.GetByEmail(ctx, payload.Email); err == nil {
		s.metrics.RecordAuthEvent("activate", metrics.OutcomeFailure)
		return nil, models.ErrDuplicateUser
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, s.internal("activate", err)
	}

	user, err := s.users.Create(ctx, &models.UserDraft{
		Name:         payload.Name,
		Email:        payload.Email,
		PasswordHash: payload.PasswordHash,
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			s.metrics.RecordAuthEvent("activate", metrics.OutcomeFailure)
			return nil, models.ErrDuplicateUser
		}
		return nil, s.internal("activate", err)
	}

	s.metrics.RecordAuthEvent("activate", metrics.OutcomeSuccess)
	s.audit.LogAccountAction(ctx, "account_activated", user.ID, nil)
	return user, nil
}

// Login checks the password and, when enabled, the second-factor code, then
// issues a session. No token or store write happens unless every check passes.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	start := time.Now()
	email := normalizeEmail(in.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, s.internal("login", err)
		}
		// Same bcrypt work as a real mismatch so response time does not reveal the account.
		s.hashes.Verify(ctx, in.Password, s.dummyHash(ctx))
		return nil, s.loginFailed(ctx, start, "", email, "unknown_email", models.ErrInvalidCredential)
	}

	if !s.hashes.Verify(ctx, in.Password, user.PasswordHash) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		return nil, s.loginFailed(ctx, start, user.ID, email, "invalid_password", models.ErrInvalidCredential)
	}

	if user.TwoFactorEnabled {
		if strings.TrimSpace(in.Code) == "" {
			s.metrics.RecordAuthEvent("login", metrics.OutcomeFailure)
			return nil, models.ErrSecondFactorRequired
		}
		ok, err := s.checkSecondFactor(user, in.Code)
		if err != nil {
			return nil, s.internal("login", err)
		}
		if !ok {
			return nil, s.loginFailed(ctx, start, user.ID, email, "invalid_second_factor", models.ErrSecondFactorInvalid)
		}
	}

	pair, err := s.issuer.Issue(ctx, user.ID)
	if err != nil {
		return nil, s.issueFailed("login", err)
	}

	s.metrics.RecordAuthEvent("login", metrics.OutcomeSuccess)
	s.audit.LogAuthAttempt(ctx, pkglogger.AuditEvent{EventType: "login", UserID: user.ID, Success: true})

	return &AuthResult{State: StateAuthenticated, Tokens: pair, User: user}, nil
}

// Refresh rotates a refresh token. The presented token must carry the id
// currently recorded for its user; any other id means the token was already
// rotated out, and the whole lineage is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.issuer.Rotate(refreshToken)
	if err != nil {
		s.metrics.RecordAuthEvent("refresh", metrics.OutcomeFailure)
		return nil, fmt.Errorf("%w: %w", models.ErrRefreshDenied, err)
	}

	valid, err := s.validateSession(ctx, claims.UserID, claims.RefreshTokenID)
	if err != nil {
		s.metrics.RecordAuthEvent("refresh", metrics.OutcomeError)
		s.logger.Error("refresh denied: session store unavailable",
			slog.String("user_id", claims.UserID),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %w", models.ErrRefreshDenied, err)
	}

	if !valid {
		s.revokeLineage(ctx, claims.UserID, "refresh_token_reuse")
		return nil, models.ErrRefreshDenied
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.revokeLineage(ctx, claims.UserID, "user_missing")
			return nil, models.ErrRefreshDenied
		}
		return nil, s.internal("refresh", err)
	}

	pair, err := s.issuer.Issue(ctx, user.ID)
	if err != nil {
		return nil, s.issueFailed("refresh", err)
	}

	s.metrics.RecordAuthEvent("refresh", metrics.OutcomeSuccess)
	return &AuthResult{State: StateAuthenticated, Tokens: pair, User: user}, nil
}

// Logout ends the refresh lineage. Outstanding access tokens stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.sessions.Invalidate(ctx, userID); err != nil {
		s.metrics.RecordAuthEvent("logout", metrics.OutcomeError)
		return err
	}
	s.metrics.RecordAuthEvent("logout", metrics.OutcomeSuccess)
	s.audit.LogAccountAction(ctx, "logout", userID, nil)
	return nil
}

// ChangePassword replaces the password after checking the current one and
// ends the refresh lineage so every session must sign in again.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.loadUser(ctx, userID, "change password")
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrInvalidCredential
		}
		return err
	}

	if !s.hashes.Verify(ctx, current, user.PasswordHash) {
		s.audit.LogPasswordChange(ctx, userID, false)
		s.metrics.RecordAuthEvent("change_password", metrics.OutcomeFailure)
		return models.ErrInvalidCredential
	}

	if err := pkgauth.ValidatePassword(next); err != nil {
		return models.NewRuleError(passwordRules("new_password", err)...)
	}

	hash, err := s.hashes.Hash(ctx, next)
	if err != nil {
		return s.internal("change password", err)
	}

	if _, err := s.users.Update(ctx, userID, models.UserUpdate{PasswordHash: &hash}); err != nil {
		return s.internal("change password", err)
	}

	if err := s.sessions.Invalidate(ctx, userID); err != nil {
		s.logger.Error("password changed but refresh session not revoked",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return err
	}

	s.metrics.RecordAuthEvent("change_password", metrics.OutcomeSuccess)
	s.audit.LogPasswordChange(ctx, userID, true)
	return nil
}

// AuthenticateAccess resolves an access token to its user id.
func (s *AuthService) AuthenticateAccess(accessToken string) (string, error) {
	claims, err := s.issuer.ParseAccessToken(accessToken)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// CurrentUser loads the user behind an authenticated request.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return s.loadUser(ctx, userID, "current user")
}

// validateSession checks the store, retrying once after a short pause when
// the store is unreachable. A second failure is returned to the caller.
func (s *AuthService) validateSession(ctx context.Context, userID, tokenID string) (bool, error) {
	op := backoff.OperationWithData[bool](func() (bool, error) {
		ok, err := s.sessions.Validate(ctx, userID, tokenID)
		if err != nil && !errors.Is(err, models.ErrStoreUnavailable) {
			return false, backoff.Permanent(err)
		}
		return ok, err
	})

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryBackoff), 1),
		ctx,
	)
	return backoff.RetryWithData(op, policy)
}

func (s *AuthService) revokeLineage(ctx context.Context, userID, reason string) {
	s.metrics.RecordAuthEvent("refresh", metrics.OutcomeFailure)
	s.audit.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     "refresh",
		UserID:        userID,
		FailureReason: reason,
	})
	if err := s.sessions.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke refresh session",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
}

func (s *AuthService) checkSecondFactor(user *models.User, code string) (bool, error) {
	if user.TwoFactorSecret == nil {
		return false, fmt.Errorf("user %s has second factor enabled without a secret", user.ID)
	}
	secret, err := s.totp.OpenSecret(*user.TwoFactorSecret)
	if err != nil {
		return false, err
	}
	return s.totp.VerifyCode(secret, strings.TrimSpace(code), s.now()), nil
}

func (s *AuthService) loginFailed(ctx context.Context, start time.Time, userID, email, reason string, kind error) error {
	s.metrics.RecordAuthEvent("login", metrics.OutcomeFailure)
	s.audit.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     "login",
		UserID:        userID,
		Email:         email,
		FailureReason: reason,
	})
	s.failureDelay.WaitFrom(ctx, start)
	return kind
}

func (s *AuthService) issueFailed(op string, err error) error {
	s.metrics.RecordAuthEvent(op, metrics.OutcomeError)
	if errors.Is(err, models.ErrStoreUnavailable) {
		s.logger.Error(op+" failed: could not record refresh session", slog.Any("error", err))
		return err
	}
	return s.internal(op, err)
}

func (s *AuthService) internal(op string, err error) error {
	s.logger.Error(op+" failed", slog.Any("error", err))
	return fmt.Errorf("%w: %s: %w", models.ErrInternalServer, op, err)
}

// dummyHash is a valid hash of a random string, compared against when the
// email is unknown.
func (s *AuthService) dummyHash(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		hash, err := s.hashes.Hash(context.WithoutCancel(ctx), uuid.New().String())
		if err != nil {
			s.logger.Warn("failed to build dummy password hash", slog.Any("error", err))
			return
		}
		s.dummy = hash
	})
	return s.dummy
}

// passwordRules attaches the failed password policy rules to field.
func passwordRules(field string, err error) []models.FieldRule {
	policy := pkgauth.PolicyRules(err)
	rules := make([]models.FieldRule, 0, len(policy))
	for _, p := range policy {
		rules = append(rules, models.FieldRule{Field: field, Key: p.Key, Params: p.Params})
	}
	return rules
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
