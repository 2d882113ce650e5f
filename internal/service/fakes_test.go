package service

import (
	"context"
	"errors"

	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
)

type fakeIdentity struct {
	signUpSession *domain.Session
	err           error

	gotEmail    string
	gotPassword string
	updated     string
	calls       int
}

func (f *fakeIdentity) Mode() string { return "local" }

func (f *fakeIdentity) SignUp(_ context.Context, email, password string) (*domain.Session, error) {
	f.calls++
	f.gotEmail, f.gotPassword = email, password
	if f.err != nil {
		return nil, f.err
	}
	if f.signUpSession != nil {
		return f.signUpSession, nil
	}
	return &domain.Session{AccessToken: "tok", TokenType: "bearer", User: domain.SessionUser{ID: "u1", Email: email}}, nil
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (*domain.Session, error) {
	f.calls++
	f.gotEmail, f.gotPassword = email, password
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Session{AccessToken: "tok", TokenType: "bearer", User: domain.SessionUser{ID: "u1", Email: email}}, nil
}

func (f *fakeIdentity) ResolveUser(context.Context, string) (*domain.UserContext, error) {
	return nil, port.ErrInvalidToken
}

func (f *fakeIdentity) UpdatePassword(_ context.Context, _ *domain.UserContext, newPassword string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.updated = newPassword
	return nil
}

type fakeGenerator struct {
	text   string
	err    error
	prompt string
	calls  int
}

func (f *fakeGenerator) ModelName() string { return "gemini-test" }

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.text, f.err
}

type fakeHistory struct {
	records []domain.ChatRecord
	err     error
}

func (f *fakeHistory) AppendChat(_ context.Context, rec domain.ChatRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

var errDown = errors.New("connection refused")
