package models

import "time"

// Message is a direct message from one user to another. Messages are never edited or deleted.
type Message struct {
	ID          int64  `json:"id"`
	SenderID    int64  `json:"sender_id"`
	RecipientID int64  `json:"recipient_id"`
	Body        string `json:"body"`
	// Timestamp is assigned by the store at insert and orders inboxes and threads (ties by ID).
	Timestamp time.Time `json:"timestamp"`

	// SenderUsername is a read projection filled by queries that join users.
	SenderUsername string `json:"sender_username,omitempty"`
}

// Involves reports whether userID is the sender or the recipient.
func (m Message) Involves(userID int64) bool {
	return m.SenderID == userID || m.RecipientID == userID
}
