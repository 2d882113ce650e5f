package port

import (
	"context"

	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
)

// TokenResolver turns a bearer token into the identity it proves.
type TokenResolver interface {
	ResolveUser(ctx context.Context, token string) (*domain.UserContext, error)
}

// IdentityProvider abstracts the identity backend.
// Implementations either call a hosted auth provider or manage credentials locally.
type IdentityProvider interface {
	TokenResolver

	// Mode returns the deployment mode served by this provider (e.g. "hosted", "local").
	Mode() string

	// SignUp creates a credential. The returned session may be unconfirmed.
	SignUp(ctx context.Context, email, password string) (*domain.Session, error)

	// SignIn checks a credential and returns a fresh session.
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)

	// UpdatePassword replaces the password of the authenticated user.
	UpdatePassword(ctx context.Context, user *domain.UserContext, newPassword string) error
}
