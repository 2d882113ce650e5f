package handler

import (
	"github.com/arturoeanton/chatcpt-gateway/internal/middleware"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/arturoeanton/chatcpt-gateway/internal/service"
	"github.com/gofiber/fiber/v3"
)

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Register sets up the guarded chat route.
func (h *ChatHandler) Register(router fiber.Router, guard fiber.Handler) {
	route(router, fiber.MethodPost, "/chat", guard, h.Chat)
}

// Chat answers one question.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return port.ErrInvalidToken
	}

	var body struct {
		Question string `json:"question"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return port.ErrInvalidBody
	}

	reply, err := h.chatService.Ask(c.Context(), uc, body.Question)
	if err != nil {
		return err
	}
	return c.JSON(reply)
}
