package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/crucial707/courier/internal/db"
	"github.com/crucial707/courier/internal/models"
)

const messageColumns = `m.id, m.sender_id, m.recipient_id, m.body, m.sent_at, u.username`

// MessageRepo stores direct messages and answers the inbox, thread and partner queries.
type MessageRepo struct {
	DB      *sql.DB
	Dialect db.Dialect

	// Now stamps new messages. Nil means the wall clock in UTC.
	Now func() time.Time
}

// NewMessageRepo returns a MessageRepo using the wall clock.
func NewMessageRepo(conn *sql.DB, dialect db.Dialect) *MessageRepo {
	return &MessageRepo{DB: conn, Dialect: dialect}
}

func (r *MessageRepo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC().Truncate(time.Microsecond)
	}
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Send stores a message from senderID to recipientID. Both users must exist; otherwise
// ErrNotFound is returned and nothing is written. Sending to oneself is allowed.
func (r *MessageRepo) Send(ctx context.Context, senderID, recipientID int64, body string) (*models.Message, error) {
	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
	}

	err := db.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		sender, err := getUser(ctx, tx, r.Dialect, senderID)
		if err != nil {
			return err
		}
		if _, err := getUser(ctx, tx, r.Dialect, recipientID); err != nil {
			return err
		}

		msg.Timestamp = r.now()
		msg.ID, err = db.InsertID(ctx, tx, r.Dialect,
			`INSERT INTO messages (sender_id, recipient_id, body, sent_at) VALUES (?, ?, ?, ?)`,
			msg.SenderID, msg.RecipientID, msg.Body, msg.Timestamp,
		)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return fmt.Errorf("message participants: %w", ErrNotFound)
			}
			return fmt.Errorf("db error: %w", err)
		}
		msg.SenderUsername = sender.Username
		return nil
	})
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// Get returns a single message by id.
func (r *MessageRepo) Get(ctx context.Context, id int64) (*models.Message, error) {
	row := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(
		`SELECT `+messageColumns+`
		 FROM messages m JOIN users u ON u.id = m.sender_id
		 WHERE m.id = ?`), id)

	var m models.Message
	err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.Timestamp, &m.SenderUsername)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &m, nil
}

// Inbox returns every message addressed to recipientID, newest first.
func (r *MessageRepo) Inbox(ctx context.Context, recipientID int64) ([]models.Message, error) {
	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(
		`SELECT `+messageColumns+`
		 FROM messages m JOIN users u ON u.id = m.sender_id
		 WHERE m.recipient_id = ?
		 ORDER BY m.sent_at DESC, m.id DESC`), recipientID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanMessages(rows)
}

// Thread returns the messages exchanged between a and b in either direction, oldest first.
// Thread(a, b) and Thread(b, a) are identical.
func (r *MessageRepo) Thread(ctx context.Context, a, b int64) ([]models.Message, error) {
	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(
		`SELECT `+messageColumns+`
		 FROM messages m JOIN users u ON u.id = m.sender_id
		 WHERE (m.sender_id = ? AND m.recipient_id = ?)
		    OR (m.sender_id = ? AND m.recipient_id = ?)
		 ORDER BY m.sent_at ASC, m.id ASC`), a, b, b, a)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanMessages(rows)
}

// ConversationPartners returns the users userID has sent to or received from, each once,
// ordered by id. userID itself is never included, even when it has messaged itself.
func (r *MessageRepo) ConversationPartners(ctx context.Context, userID int64) ([]models.User, error) {
	sentTo, err := r.counterparties(ctx,
		`SELECT DISTINCT recipient_id FROM messages WHERE sender_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	receivedFrom, err := r.counterparties(ctx,
		`SELECT DISTINCT sender_id FROM messages WHERE recipient_id = ?`, userID)
	if err != nil {
		return nil, err
	}

	set := make(map[int64]struct{}, len(sentTo)+len(receivedFrom))
	for _, id := range append(sentTo, receivedFrom...) {
		if id != userID {
			set[id] = struct{}{}
		}
	}
	if len(set) == 0 {
		return []models.User{}, nil
	}

	ids := make([]any, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].(int64) < ids[j].(int64) })

	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(
		`SELECT id, username, created_at FROM users WHERE id IN (`+db.Placeholders(len(ids))+`) ORDER BY id`),
		ids...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanUsers(rows)
}

// counterparties runs a single-column id query and closes the rows before returning.
func (r *MessageRepo) counterparties(ctx context.Context, query string, userID int64) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the total number of stored messages.
func (r *MessageRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.Timestamp, &m.SenderUsername); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
