package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
)

// AuthProvider implements port.IdentityProvider against the GoTrue REST API.
type AuthProvider struct {
	client *Client
}

// NewAuthProvider creates a hosted identity provider.
func NewAuthProvider(client *Client) *AuthProvider {
	return &AuthProvider{client: client}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// gotrueSession covers both signup shapes: a session (auto-confirm) or a bare user.
type gotrueSession struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	ExpiresAt   int64       `json:"expires_at"`
	User        *gotrueUser `json:"user"`

	// Bare user fields, present when confirmation is pending.
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (s *gotrueSession) toDomain() *domain.Session {
	out := &domain.Session{
		AccessToken: s.AccessToken,
		TokenType:   strings.ToLower(s.TokenType),
		ExpiresAt:   s.ExpiresAt,
	}
	if out.TokenType == "" {
		out.TokenType = "bearer"
	}
	if out.ExpiresAt == 0 && s.ExpiresIn > 0 {
		out.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}
	if s.User != nil {
		out.User = domain.SessionUser{ID: s.User.ID, Email: s.User.Email}
	} else {
		out.User = domain.SessionUser{ID: s.ID, Email: s.Email}
	}
	return out
}

// Mode returns "hosted".
func (p *AuthProvider) Mode() string {
	return "hosted"
}

// SignUp registers a user. When the project requires e-mail confirmation the
// returned session has no access token.
func (p *AuthProvider) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	var out gotrueSession
	err := p.client.do(ctx, http.MethodPost, "/auth/v1/signup", "", credentials{Email: email, Password: password}, &out, nil)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			if apiErr.Status == http.StatusTooManyRequests {
				return nil, port.ErrRateLimited
			}
			if isAlreadyRegistered(apiErr) {
				return nil, port.ErrUserExists
			}
			slog.Warn("signup rejected by provider", "status", apiErr.Status, "reason", apiErr.text())
			return nil, port.ErrSignUpRejected
		}
		return nil, err
	}

	sess := out.toDomain()
	slog.Info("user registered", "user_id", sess.User.ID, "mode", p.Mode(), "confirmed", sess.Confirmed())
	return sess, nil
}

// SignIn performs a password grant.
func (p *AuthProvider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var out gotrueSession
	err := p.client.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", credentials{Email: email, Password: password}, &out, nil)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			if apiErr.Status == http.StatusTooManyRequests {
				return nil, port.ErrRateLimited
			}
			return nil, port.ErrInvalidCredentials
		}
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("supabase: password grant without token: %w", port.ErrProviderMalformed)
	}
	return out.toDomain(), nil
}

// ResolveUser looks up the user owning an access token.
func (p *AuthProvider) ResolveUser(ctx context.Context, token string) (*domain.UserContext, error) {
	var out gotrueUser
	err := p.client.do(ctx, http.MethodGet, "/auth/v1/user", token, nil, &out, nil)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			return nil, port.ErrInvalidToken
		}
		return nil, err
	}
	if out.ID == "" {
		return nil, port.ErrInvalidToken
	}
	return &domain.UserContext{UserID: out.ID, Email: out.Email, AccessToken: token}, nil
}

// UpdatePassword changes the password of the user owning the context's token.
func (p *AuthProvider) UpdatePassword(ctx context.Context, user *domain.UserContext, newPassword string) error {
	body := map[string]string{"password": newPassword}
	err := p.client.do(ctx, http.MethodPut, "/auth/v1/user", user.AccessToken, body, nil, nil)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) {
			if apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden {
				return port.ErrInvalidToken
			}
			slog.Warn("password update rejected by provider", "status", apiErr.Status, "reason", apiErr.text())
			return port.ErrPasswordRejected
		}
		return err
	}
	return nil
}

func isAlreadyRegistered(e *apiError) bool {
	if e.Code == "user_already_exists" || e.Code == "email_exists" {
		return true
	}
	return strings.Contains(strings.ToLower(e.text()), "already registered")
}
