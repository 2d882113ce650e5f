package domain

import "time"

// AuditLog records one HTTP request handled by the API.
type AuditLog struct {
	ID        string    `json:"id"          db:"id"`
	UserID    string    `json:"user_id"     db:"user_id"`
	Action    string    `json:"action"      db:"action"`
	Method    string    `json:"method"      db:"method"`
	Path      string    `json:"path"        db:"path"`
	Status    int       `json:"status"      db:"status"`
	Duration  int64     `json:"duration_ms" db:"duration_ms"`
	IP        string    `json:"ip"          db:"ip"`
	UserAgent string    `json:"user_agent"  db:"user_agent"`
	CreatedAt time.Time `json:"created_at"  db:"created_at"`
}

// Audit action constants.
const (
	AuditActionRequest  = "http_request"
	AuditActionRegister = "register"
	AuditActionLogin    = "login"
	AuditActionChat     = "chat"
	AuditActionProfile  = "profile_update"
)
