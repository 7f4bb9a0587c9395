package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/authgate/internal/models"
	"github.com/google/uuid"
)

// MockUserRepository implements UserRepository for testing. Unset funcs fall
// back to an in-memory user table, so scenario tests can run against real state.
type MockUserRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	CreateFunc     func(ctx context.Context, draft *models.UserDraft) (*models.User, error)
	UpdateFunc     func(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)

	mu    sync.Mutex
	users map[string]*models.User
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, draft *models.UserDraft) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, draft)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(draft.Email) {
			return nil, models.ErrDuplicateUser
		}
	}
	now := time.Now()
	u := &models.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(draft.Email),
		Name:         draft.Name,
		PasswordHash: draft.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	m.users[u.ID] = u
	clone := *u
	return &clone, nil
}

func (m *MockUserRepository) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, upd)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	now := time.Now()
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
		u.PasswordChangedAt = &now
	}
	if upd.ClearTwoFactorSecret {
		u.TwoFactorSecret = nil
	} else if upd.TwoFactorSecret != nil {
		secret := *upd.TwoFactorSecret
		u.TwoFactorSecret = &secret
	}
	if upd.TwoFactorEnabled != nil {
		u.TwoFactorEnabled = *upd.TwoFactorEnabled
	}
	u.UpdatedAt = now
	clone := *u
	return &clone, nil
}

// Seed stores u directly, bypassing Create.
func (m *MockUserRepository) Seed(u *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	clone := *u
	m.users[u.ID] = &clone
}

// MockRefreshSessionStore implements RefreshSessionStore for testing. Unset
// funcs fall back to an in-memory map with overwrite semantics.
type MockRefreshSessionStore struct {
	InsertFunc     func(ctx context.Context, userID, tokenID string) error
	ValidateFunc   func(ctx context.Context, userID, tokenID string) (bool, error)
	InvalidateFunc func(ctx context.Context, userID string) error

	mu              sync.Mutex
	records         map[string]string
	InsertCalls     int
	ValidateCalls   int
	InvalidateCalls int
}

func (m *MockRefreshSessionStore) Insert(ctx context.Context, userID, tokenID string) error {
	m.mu.Lock()
	m.InsertCalls++
	m.mu.Unlock()
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, userID, tokenID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		m.records = make(map[string]string)
	}
	m.records[userID] = tokenID
	return nil
}

func (m *MockRefreshSessionStore) Validate(ctx context.Context, userID, tokenID string) (bool, error) {
	m.mu.Lock()
	m.ValidateCalls++
	m.mu.Unlock()
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, userID, tokenID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.records[userID]
	return ok && stored == tokenID, nil
}

func (m *MockRefreshSessionStore) Invalidate(ctx context.Context, userID string) error {
	m.mu.Lock()
	m.InvalidateCalls++
	m.mu.Unlock()
	if m.InvalidateFunc != nil {
		return m.InvalidateFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, userID)
	return nil
}

// Record returns the stored refresh-token id for userID.
func (m *MockRefreshSessionStore) Record(userID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.records[userID]
	return id, ok
}

// SentActivation is a captured activation mail.
type SentActivation struct {
	Email string
	Token string
	Code  string
}

// MockMailDispatcher captures activation mail for assertions.
type MockMailDispatcher struct {
	SendActivationFunc func(ctx context.Context, email, token, code string) error

	mu   sync.Mutex
	Sent []SentActivation
}

func (m *MockMailDispatcher) SendActivation(ctx context.Context, email, token, code string) error {
	if m.SendActivationFunc != nil {
		if err := m.SendActivationFunc(ctx, email, token, code); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentActivation{Email: email, Token: token, Code: code})
	return nil
}

// Last returns the most recent captured mail.
func (m *MockMailDispatcher) Last() (SentActivation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentActivation{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

// NewTestUser creates a test user with the given password hash
func NewTestUser(id, email, name, passwordHash string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
