package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arturoeanton/chatcpt-gateway/internal/auth"
	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/google/uuid"
)

// UserStore persists local credentials.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Provider implements port.IdentityProvider without any hosted service:
// bcrypt-hashed credentials in a UserStore and HS256 tokens from a TokenCodec.
type Provider struct {
	users UserStore
	codec *auth.TokenCodec
}

// NewProvider creates the self-hosted identity provider.
func NewProvider(users UserStore, codec *auth.TokenCodec) *Provider {
	return &Provider{users: users, codec: codec}
}

// Mode returns "local".
func (p *Provider) Mode() string {
	return "local"
}

// SignUp creates a user and returns a session for it.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	if _, err := p.users.GetUserByEmail(ctx, email); err == nil {
		return nil, port.ErrUserExists
	} else if !errors.Is(err, port.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := p.users.CreateUser(ctx, &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID, "mode", p.Mode())
	return p.session(user)
}

// SignIn checks the password and returns a session. Unknown users and wrong
// passwords both yield port.ErrInvalidCredentials.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	user, err := p.users.GetUserByEmail(ctx, email)
	if errors.Is(err, port.ErrUserNotFound) {
		return nil, port.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, port.ErrInvalidCredentials
	}

	return p.session(user)
}

// ResolveUser verifies a locally issued token.
func (p *Provider) ResolveUser(_ context.Context, token string) (*domain.UserContext, error) {
	claims, err := p.codec.Verify(token)
	if err != nil {
		return nil, err
	}
	return &domain.UserContext{
		UserID:      claims.UserID,
		Email:       claims.Email,
		AccessToken: token,
	}, nil
}

// UpdatePassword re-hashes and stores the new password of user.
func (p *Provider) UpdatePassword(ctx context.Context, user *domain.UserContext, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return p.users.UpdatePassword(ctx, user.UserID, hash)
}

func (p *Provider) session(user *domain.User) (*domain.Session, error) {
	token, expiresAt, err := p.codec.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt.Unix(),
		User:        domain.SessionUser{ID: user.ID, Email: user.Email},
	}, nil
}
