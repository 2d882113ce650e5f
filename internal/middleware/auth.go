package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/gofiber/fiber/v3"
)

const (
	userKey      = "user"
	bearerPrefix = "Bearer "
)

// RequireUser creates a Fiber middleware that resolves the bearer token
// and injects a UserContext into the request locals.
func RequireUser(resolver port.TokenResolver) fiber.Handler {
	return func(c fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return port.ErrMissingHeader
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			return port.ErrMalformedHeader
		}
		token := strings.Clone(strings.TrimSpace(header[len(bearerPrefix):]))
		if token == "" {
			return port.ErrMalformedHeader
		}

		user, err := resolver.ResolveUser(c.Context(), token)
		if err != nil {
			if errors.Is(err, port.ErrProviderUnavailable) {
				return err
			}
			slog.Debug("token rejected", "path", c.Path(), "error", err)
			return port.ErrInvalidToken
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// GetUserContext extracts the UserContext from Fiber locals.
func GetUserContext(c fiber.Ctx) *domain.UserContext {
	u, ok := c.Locals(userKey).(*domain.UserContext)
	if !ok {
		return nil
	}
	return u
}
