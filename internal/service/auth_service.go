package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/go-playground/validator/v10"
)

// Legacy /auth actions.
const (
	ActionLogin    = "login"
	ActionRegister = "register"
)

// MinPasswordLength is the shortest password accepted on register and profile update.
const MinPasswordLength = 6

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type registerInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// AuthResult is the normalized body returned by every auth operation.
type AuthResult struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Session *domain.Session     `json:"session,omitempty"`
	User    *domain.SessionUser `json:"user,omitempty"`
}

// AuthService validates credentials and delegates to the identity provider.
type AuthService struct {
	identity port.IdentityProvider
	validate *validator.Validate
}

// NewAuthService creates a new authentication service.
func NewAuthService(identity port.IdentityProvider) *AuthService {
	return &AuthService{
		identity: identity,
		validate: validator.New(),
	}
}

// Register creates an account. The session is omitted while e-mail confirmation is pending.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if err := s.check(registerInput{Email: email, Password: password}); err != nil {
		return nil, err
	}

	sess, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	res := &AuthResult{Success: true, User: &sess.User}
	if sess.Confirmed() {
		res.Message = "Registration successful"
		res.Session = sess
	} else {
		res.Message = "Registration successful, please confirm your e-mail"
	}
	return res, nil
}

// Login signs a user in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if err := s.check(loginInput{Email: email, Password: password}); err != nil {
		return nil, err
	}

	sess, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", "user_id", sess.User.ID, "mode", s.identity.Mode())
	return &AuthResult{Success: true, Message: "Login successful", Session: sess, User: &sess.User}, nil
}

// Authenticate serves the legacy single endpoint that dispatches on action.
func (s *AuthService) Authenticate(ctx context.Context, action, email, password string) (*AuthResult, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionLogin:
		return s.Login(ctx, email, password)
	case ActionRegister:
		return s.Register(ctx, email, password)
	default:
		return nil, port.ErrInvalidAction
	}
}

// UpdateProfile changes the caller's own password.
func (s *AuthService) UpdateProfile(ctx context.Context, user *domain.UserContext, newPassword string) (*AuthResult, error) {
	if newPassword == "" {
		return nil, port.ErrNoUpdate
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		return nil, port.ErrWeakPassword
	}

	if err := s.identity.UpdatePassword(ctx, user, newPassword); err != nil {
		return nil, err
	}

	slog.Info("password updated", "user_id", user.UserID)
	return &AuthResult{
		Success: true,
		Message: "Profile updated successfully",
		User:    &domain.SessionUser{ID: user.UserID, Email: user.Email},
	}, nil
}

// check maps validator failures onto the error taxonomy. Missing fields win over format errors.
func (s *AuthService) check(in interface{}) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return port.ErrMissingCredentials
		}
	}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "email":
			return port.ErrInvalidEmail
		case "min":
			return port.ErrWeakPassword
		}
	}
	return port.ErrInvalidBody
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
