package models

import "time"

// Account events recorded in the audit log.
const (
	AuditRegister = "register"
	AuditLogin    = "login"
	AuditLogout   = "logout"
)

// AuditEntry represents one audit log row.
type AuditEntry struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Action     string    `json:"action"` // register, login, logout
	RemoteAddr string    `json:"remote_addr,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
