package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/crucial707/courier/internal/db"
	"github.com/crucial707/courier/internal/models"
)

// AuditRepo persists account activity (register, login, logout).
type AuditRepo struct {
	DB      *sql.DB
	Dialect db.Dialect
	Now     func() time.Time
}

// NewAuditRepo returns a new AuditRepo.
func NewAuditRepo(conn *sql.DB, dialect db.Dialect) *AuditRepo {
	return &AuditRepo{DB: conn, Dialect: dialect, Now: time.Now}
}

// Log records an audit entry for userID.
func (r *AuditRepo) Log(ctx context.Context, userID int64, action, remoteAddr string) error {
	_, err := r.DB.ExecContext(ctx,
		r.Dialect.Rebind(`INSERT INTO audit_log (user_id, action, remote_addr, created_at) VALUES (?, ?, ?, ?)`),
		userID, action, remoteAddr, r.Now().UTC().Truncate(time.Microsecond),
	)
	return err
}

// Recent returns the latest limit entries for userID, newest first.
func (r *AuditRepo) Recent(ctx context.Context, userID int64, limit int) ([]models.AuditEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		r.Dialect.Rebind(`SELECT id, user_id, action, remote_addr, created_at FROM audit_log WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`),
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.RemoteAddr, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneBefore deletes entries older than cutoff and returns how many went.
func (r *AuditRepo) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		r.Dialect.Rebind(`DELETE FROM audit_log WHERE created_at < ?`),
		cutoff.UTC().Truncate(time.Microsecond),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
