package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
)

// HistoryTable implements port.HistoryStore by inserting rows through PostgREST.
type HistoryTable struct {
	client *Client
	table  string
}

// NewHistoryTable creates a history store writing to the given table.
func NewHistoryTable(client *Client, table string) *HistoryTable {
	return &HistoryTable{client: client, table: table}
}

type historyRow struct {
	UserID    string `json:"user_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt string `json:"created_at"`
}

// AppendChat inserts one row.
func (h *HistoryTable) AppendChat(ctx context.Context, rec domain.ChatRecord) error {
	rows := []historyRow{{
		UserID:    rec.UserID,
		Question:  rec.Question,
		Answer:    rec.Answer,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
	}}
	headers := map[string]string{"Prefer": "return=minimal"}
	if err := h.client.do(ctx, http.MethodPost, "/rest/v1/"+h.table, "", rows, nil, headers); err != nil {
		return fmt.Errorf("insert %s: %w", h.table, err)
	}
	return nil
}
