package port

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindMethod
	KindRateLimit
	KindUpstream
	KindUnavailable
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindMethod:
		return http.StatusMethodNotAllowed
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error whose message is safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// NewError creates a classified error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Classify returns the classified error wrapped in err, or nil.
func Classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// Sentinel errors used across ports.
var (
	// Request validation
	ErrInvalidBody        = NewError(KindValidation, "Invalid JSON data")
	ErrMissingCredentials = NewError(KindValidation, "Email and password are required")
	ErrInvalidEmail       = NewError(KindValidation, "Invalid email format")
	ErrWeakPassword       = NewError(KindValidation, "Password must be at least 6 characters")
	ErrInvalidAction      = NewError(KindValidation, "Invalid action")
	ErrEmptyQuestion      = NewError(KindValidation, "Question is required")
	ErrNoUpdate           = NewError(KindValidation, "No data provided to update")
	ErrUserExists         = NewError(KindValidation, "User already exists")
	ErrSignUpRejected     = NewError(KindValidation, "Registration was rejected")
	ErrPasswordRejected   = NewError(KindValidation, "Password update was rejected")

	// Authentication
	ErrMissingHeader      = NewError(KindAuth, "Missing authorization header")
	ErrMalformedHeader    = NewError(KindAuth, "Invalid authorization header")
	ErrInvalidToken       = NewError(KindAuth, "Invalid token")
	ErrMalformedToken     = NewError(KindAuth, "Malformed token")
	ErrBadSignature       = NewError(KindAuth, "Invalid token signature")
	ErrTokenExpired       = NewError(KindAuth, "Token expired")
	ErrTokenInvalid       = NewError(KindAuth, "Invalid token claims")
	ErrInvalidCredentials = NewError(KindAuth, "Invalid email or password")
	ErrUserNotFound       = NewError(KindAuth, "User not found")

	// Routing
	ErrRouteNotFound    = NewError(KindNotFound, "Not found")
	ErrMethodNotAllowed = NewError(KindMethod, "Method not allowed")
	ErrRateLimited      = NewError(KindRateLimit, "Too many requests")

	// Collaborators
	ErrUpstreamUnavailable = NewError(KindUnavailable, "AI service temporarily unavailable")
	ErrUpstreamMalformed   = NewError(KindUpstream, "AI service returned an unexpected response")
	ErrEmptyCompletion     = NewError(KindUpstream, "AI service returned no answer")
	ErrProviderUnavailable = NewError(KindUnavailable, "Identity provider temporarily unavailable")
	ErrProviderMalformed   = NewError(KindUpstream, "Identity provider returned an unexpected response")
)
