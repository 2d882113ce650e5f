package domain

import "time"

// ChatRecord is one question/answer exchange. Records are append-only.
type ChatRecord struct {
	UserID    string    `json:"user_id"    db:"user_id"`
	Question  string    `json:"question"   db:"question"`
	Answer    string    `json:"answer"     db:"answer"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ChatReply is what the chat endpoint returns to the caller.
type ChatReply struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
