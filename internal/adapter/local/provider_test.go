package local

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/arturoeanton/chatcpt-gateway/internal/auth"
	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: map[string]*domain.User{}}
}

func (m *memUsers) CreateUser(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return nil, port.ErrUserExists
	}
	cp := *u
	cp.CreatedAt = time.Now()
	m.byEmail[u.Email] = &cp
	return &cp, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, port.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, userID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == userID {
			u.PasswordHash = hash
			return nil
		}
	}
	return port.ErrUserNotFound
}

func newProvider() (*Provider, *memUsers) {
	users := newMemUsers()
	return NewProvider(users, auth.NewTokenCodec("secret", "chatcpt", time.Hour)), users
}

func TestSignUpIssuesSession(t *testing.T) {
	p, users := newProvider()

	sess, err := p.SignUp(context.Background(), "a@b.com", "abcdef")
	require.NoError(t, err)
	assert.True(t, sess.Confirmed())
	assert.Equal(t, "bearer", sess.TokenType)
	assert.Equal(t, "a@b.com", sess.User.Email)
	assert.NotEmpty(t, sess.User.ID)

	stored, err := users.GetUserByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.NotEqual(t, "abcdef", stored.PasswordHash, "password must be hashed")

	uc, err := p.ResolveUser(context.Background(), sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, uc.UserID)
}

func TestSignUpTwice(t *testing.T) {
	p, _ := newProvider()

	_, err := p.SignUp(context.Background(), "a@b.com", "abcdef")
	require.NoError(t, err)

	_, err = p.SignUp(context.Background(), "a@b.com", "abcdef")
	assert.ErrorIs(t, err, port.ErrUserExists)
}

func TestSignIn(t *testing.T) {
	p, _ := newProvider()
	_, err := p.SignUp(context.Background(), "a@b.com", "abcdef")
	require.NoError(t, err)

	sess, err := p.SignIn(context.Background(), "a@b.com", "abcdef")
	require.NoError(t, err)
	assert.True(t, sess.Confirmed())

	_, err = p.SignIn(context.Background(), "a@b.com", "wrong-password")
	assert.ErrorIs(t, err, port.ErrInvalidCredentials)

	_, err = p.SignIn(context.Background(), "nobody@b.com", "abcdef")
	assert.ErrorIs(t, err, port.ErrInvalidCredentials)
}

func TestUpdatePassword(t *testing.T) {
	p, _ := newProvider()
	sess, err := p.SignUp(context.Background(), "a@b.com", "abcdef")
	require.NoError(t, err)

	uc, err := p.ResolveUser(context.Background(), sess.AccessToken)
	require.NoError(t, err)
	require.NoError(t, p.UpdatePassword(context.Background(), uc, "new-password"))

	_, err = p.SignIn(context.Background(), "a@b.com", "abcdef")
	assert.ErrorIs(t, err, port.ErrInvalidCredentials)

	_, err = p.SignIn(context.Background(), "a@b.com", "new-password")
	assert.NoError(t, err)
}

func TestResolveUserRejectsGarbage(t *testing.T) {
	p, _ := newProvider()

	_, err := p.ResolveUser(context.Background(), "garbage")
	assert.ErrorIs(t, err, port.ErrMalformedToken)
}
