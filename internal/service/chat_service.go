package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
)

// ChatService answers questions through the text generator and records each exchange.
type ChatService struct {
	generator      port.TextGenerator
	history        port.HistoryStore
	promptPrefix   string
	fallbackAnswer string
	now            func() time.Time
}

// NewChatService creates a chat service. history may be nil.
func NewChatService(generator port.TextGenerator, history port.HistoryStore, promptPrefix, fallbackAnswer string) *ChatService {
	return &ChatService{
		generator:      generator,
		history:        history,
		promptPrefix:   promptPrefix,
		fallbackAnswer: fallbackAnswer,
		now:            time.Now,
	}
}

// Ask sends the question upstream and returns the answer.
func (s *ChatService) Ask(ctx context.Context, user *domain.UserContext, question string) (*domain.ChatReply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, port.ErrEmptyQuestion
	}

	start := s.now()
	text, err := s.generator.Generate(ctx, s.promptPrefix+question)
	switch {
	case errors.Is(err, port.ErrEmptyCompletion):
		slog.Warn("empty completion, using fallback answer", "user_id", user.UserID, "model", s.generator.ModelName())
		text = s.fallbackAnswer
	case err != nil:
		slog.Error("generation failed", "user_id", user.UserID, "model", s.generator.ModelName(), "error", err)
		return nil, err
	}

	now := s.now()
	slog.Debug("chat answered", "user_id", user.UserID, "duration_ms", now.Sub(start).Milliseconds())

	if s.history != nil {
		rec := domain.ChatRecord{UserID: user.UserID, Question: question, Answer: text, CreatedAt: now}
		if err := s.history.AppendChat(ctx, rec); err != nil {
			slog.Error("failed to save chat history", "user_id", user.UserID, "error", err)
		}
	}

	return &domain.ChatReply{Text: text, Timestamp: now}, nil
}
