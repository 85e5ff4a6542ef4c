package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/multiexpenses/internal/models"
	"github.com/mmynk/multiexpenses/internal/storage"
)

// memUsers is an in-memory UserStorage keyed by email.
type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
	// racer, when set, is inserted right before CreateUser runs,
	// as if another request won the race.
	racer *models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*models.User)}
}

func (m *memUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.racer != nil {
		m.users[m.racer.Email] = m.racer
		m.racer = nil
	}
	if _, ok := m.users[user.Email]; ok {
		return storage.ErrAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[email], nil
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func newTestAuthenticator() (*PasswordAuthenticator, *memUsers) {
	users := newMemUsers()
	return NewPasswordAuthenticator(users).WithCost(bcrypt.MinCost), users
}

func TestRegister_NormalizesEmail(t *testing.T) {
	a, users := newTestAuthenticator()

	user, err := a.Register(context.Background(), "  Alice@Example.COM ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.Len(t, users.users, 1)
}

func TestRegister_Validation(t *testing.T) {
	a, _ := newTestAuthenticator()
	ctx := context.Background()

	_, err := a.Register(ctx, "   ", "password123")
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = a.Register(ctx, "a@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	a, users := newTestAuthenticator()
	ctx := context.Background()

	_, err := a.Register(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	_, err = a.Register(ctx, "A@EXAMPLE.COM", "password456")
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.Len(t, users.users, 1)
}

func TestRegister_LosesInsertRace(t *testing.T) {
	a, users := newTestAuthenticator()
	users.racer = models.NewUser("a@example.com", "hash")

	_, err := a.Register(context.Background(), "a@example.com", "password123")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthenticate(t *testing.T) {
	a, _ := newTestAuthenticator()
	ctx := context.Background()

	registered, err := a.Register(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	user, err := a.Authenticate(ctx, "A@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, errWrongPassword := a.Authenticate(ctx, "a@example.com", "wrong-password")
	_, errUnknownEmail := a.Authenticate(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknownEmail, ErrInvalidCredentials)
	assert.Equal(t, errWrongPassword.Error(), errUnknownEmail.Error())
}
