package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: the user id plus registered expiry/issuer claims.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 session tokens for the self-hosted mode.
type TokenCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec returns a codec signing with secret. Tokens live for ttl.
func NewTokenCodec(secret, issuer string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of the codec that reads the time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

// TTL returns how long issued tokens stay valid.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for userID and returns it with its expiry.
func (c *TokenCodec) Issue(userID, email string) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.ttl)

	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, expiry and issuer of token and returns its claims.
// Errors are port.ErrMalformedToken, port.ErrBadSignature, port.ErrTokenExpired
// or port.ErrTokenInvalid.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	if err := c.checkSignature(token); err != nil {
		return nil, err
	}

	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.now),
	)

	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, port.ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, port.ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, port.ErrTokenExpired
		default:
			return nil, fmt.Errorf("%w: %v", port.ErrTokenInvalid, err)
		}
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user_id", port.ErrTokenInvalid)
	}

	return claims, nil
}

// checkSignature verifies the HMAC before the payload is decoded, so any edit
// to the payload segment fails as a signature mismatch.
func (c *TokenCodec) checkSignature(token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return port.ErrMalformedToken
	}

	rawHeader, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return port.ErrMalformedToken
	}
	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(rawHeader, &header); err != nil {
		return port.ErrMalformedToken
	}
	if header.Alg != jwt.SigningMethodHS256.Alg() {
		return port.ErrBadSignature
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return port.ErrBadSignature
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0]+"."+parts[1], sig, c.secret); err != nil {
		return port.ErrBadSignature
	}
	return nil
}
