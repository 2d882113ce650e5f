package port

import (
	"context"

	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
)

// HistoryStore persists chat exchanges. It is append-only.
type HistoryStore interface {
	AppendChat(ctx context.Context, rec domain.ChatRecord) error
}
