package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/gofiber/fiber/v3"
)

// AuditWriter defines how audit records are persisted.
type AuditWriter interface {
	WriteAudit(ctx context.Context, entry domain.AuditLog) error
}

const auditWriteTimeout = 5 * time.Second

// AuditMiddleware records every request.
func AuditMiddleware(writer AuditWriter) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Copy request data BEFORE handler execution (Fiber reuses context buffers)
		entry := domain.AuditLog{
			Action:    domain.AuditActionRequest,
			Method:    strings.Clone(c.Method()),
			Path:      strings.Clone(c.Path()),
			IP:        strings.Clone(c.IP()),
			UserAgent: strings.Clone(c.Get(fiber.HeaderUserAgent)),
		}

		err := c.Next()

		entry.UserID = "anonymous"
		if uc := GetUserContext(c); uc != nil {
			entry.UserID = uc.UserID
		}
		entry.Action = auditAction(entry.Path)
		entry.Status = c.Response().StatusCode()
		if err != nil {
			entry.Status = errorStatus(err)
		}
		entry.Duration = time.Since(start).Milliseconds()

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
			defer cancel()
			if writeErr := writer.WriteAudit(ctx, entry); writeErr != nil {
				slog.Error("failed to write audit log", "error", writeErr)
			}
		}()

		return err
	}
}

func auditAction(path string) string {
	switch {
	case strings.HasSuffix(path, "/auth/register"):
		return domain.AuditActionRegister
	case strings.HasSuffix(path, "/auth/login"):
		return domain.AuditActionLogin
	case strings.HasSuffix(path, "/chat"):
		return domain.AuditActionChat
	case strings.HasSuffix(path, "/profile/update"):
		return domain.AuditActionProfile
	default:
		return domain.AuditActionRequest
	}
}

// errorStatus resolves the status an error will be rendered with, since the
// error handler runs after this middleware returns.
func errorStatus(err error) int {
	if pe := port.Classify(err); pe != nil {
		return pe.Kind.Status()
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
