package handler

import (
	"github.com/arturoeanton/chatcpt-gateway/internal/middleware"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/arturoeanton/chatcpt-gateway/internal/service"
	"github.com/gofiber/fiber/v3"
)

// AuthHandler handles login, registration and profile endpoints.
type AuthHandler struct {
	authService *service.AuthService
	limiter     fiber.Handler
}

// NewAuthHandler creates a new auth handler. limiter may be nil.
func NewAuthHandler(authService *service.AuthService, limiter fiber.Handler) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter}
}

type credentialsBody struct {
	Action   string `json:"action"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register sets up the public auth routes.
func (h *AuthHandler) Register(router fiber.Router) {
	route(router, fiber.MethodPost, "/auth/login", h.withLimit(h.Login)...)
	route(router, fiber.MethodPost, "/auth/register", h.withLimit(h.SignUp)...)
	route(router, fiber.MethodPost, "/auth", h.withLimit(h.Legacy)...)
}

// RegisterProfile sets up the guarded profile route.
func (h *AuthHandler) RegisterProfile(router fiber.Router, guard fiber.Handler) {
	route(router, fiber.MethodPost, "/profile/update", guard, h.UpdateProfile)
}

func (h *AuthHandler) withLimit(next fiber.Handler) []fiber.Handler {
	if h.limiter == nil {
		return []fiber.Handler{next}
	}
	return []fiber.Handler{h.limiter, next}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body credentialsBody
	if err := c.Bind().JSON(&body); err != nil {
		return port.ErrInvalidBody
	}

	res, err := h.authService.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// SignUp handles POST /auth/register.
func (h *AuthHandler) SignUp(c fiber.Ctx) error {
	var body credentialsBody
	if err := c.Bind().JSON(&body); err != nil {
		return port.ErrInvalidBody
	}

	res, err := h.authService.Register(c.Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Legacy handles POST /auth with an action field.
func (h *AuthHandler) Legacy(c fiber.Ctx) error {
	var body credentialsBody
	if err := c.Bind().JSON(&body); err != nil {
		return port.ErrInvalidBody
	}

	res, err := h.authService.Authenticate(c.Context(), body.Action, body.Email, body.Password)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// UpdateProfile handles POST /profile/update for the authenticated caller.
func (h *AuthHandler) UpdateProfile(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return port.ErrInvalidToken
	}

	var body struct {
		NewPassword string `json:"newPassword"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return port.ErrInvalidBody
	}

	res, err := h.authService.UpdateProfile(c.Context(), uc, body.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(res)
}
