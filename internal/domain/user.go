package domain

import "time"

// User is a locally stored credential (local mode only).
type User struct {
	ID           string    `json:"id"         db:"id"`
	Email        string    `json:"email"      db:"email"`
	PasswordHash string    `json:"-"          db:"password"` // never serialized to JSON
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// SessionUser is the public part of a user returned with a session.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the bearer credential handed to the browser after login or registration.
// AccessToken is empty when the provider still requires e-mail confirmation.
type Session struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   int64       `json:"expires_at,omitempty"` // unix seconds
	User        SessionUser `json:"user"`
}

// Confirmed reports whether the session carries a usable token.
func (s *Session) Confirmed() bool {
	return s != nil && s.AccessToken != ""
}

// UserContext is the authenticated user context injected into request handlers.
type UserContext struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"-"`
}
