package handler

import (
	"errors"
	"log/slog"

	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/gofiber/fiber/v3"
)

// ErrorHandler serializes every error as {error: message}.
func ErrorHandler(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if pe := port.Classify(err); pe != nil {
		status = pe.Kind.Status()
		message = pe.Message
		if status >= fiber.StatusInternalServerError {
			slog.Error("request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
		}
	} else if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	} else {
		slog.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
	}

	return c.Status(status).JSON(fiber.Map{"error": message})
}

// NotFound terminates the chain for unknown paths.
func NotFound(c fiber.Ctx) error {
	return port.ErrRouteNotFound
}

func methodNotAllowed(c fiber.Ctx) error {
	return port.ErrMethodNotAllowed
}

// route registers handlers for method on path and answers every other method with 405.
// Each handler is its own route entry; c.Next() walks them in order.
func route(router fiber.Router, method, path string, handlers ...fiber.Handler) {
	for _, h := range handlers {
		router.Add([]string{method}, path, h)
	}
	router.All(path, methodNotAllowed)
}
