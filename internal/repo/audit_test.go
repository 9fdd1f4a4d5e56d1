package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/courier/internal/db"
	"github.com/crucial707/courier/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRepo_Log(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer conn.Close()

	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO audit_log \(user_id, action, remote_addr, created_at\) VALUES \(\$1, \$2, \$3, \$4\)`).
		WithArgs(int64(7), models.AuditLogin, "10.0.0.1:5555", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	r := NewAuditRepo(conn, db.Postgres)
	r.Now = func() time.Time { return now }
	if err := r.Log(context.Background(), 7, models.AuditLogin, "10.0.0.1:5555"); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAuditRepo_Recent(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer conn.Close()

	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, user_id, action, remote_addr, created_at FROM audit_log WHERE user_id = \$1 ORDER BY created_at DESC, id DESC LIMIT \$2`).
		WithArgs(int64(7), 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "action", "remote_addr", "created_at"}).
			AddRow(2, 7, "login", "", at.Add(time.Minute)).
			AddRow(1, 7, "register", "", at))

	entries, err := NewAuditRepo(conn, db.Postgres).Recent(context.Background(), 7, 50)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 || entries[0].Action != "login" || entries[1].Action != "register" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestSQLite_AuditRecentAndPrune(t *testing.T) {
	ctx := context.Background()
	users, _ := openTestDB(t)
	alice := mustRegister(t, users, "alice")
	bob := mustRegister(t, users, "bob")

	audit := NewAuditRepo(users.DB, db.SQLite)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	audit.Now = stepClock(start)

	require.NoError(t, audit.Log(ctx, alice.ID, models.AuditRegister, "127.0.0.1:1"))
	require.NoError(t, audit.Log(ctx, alice.ID, models.AuditLogin, "127.0.0.1:2"))
	require.NoError(t, audit.Log(ctx, bob.ID, models.AuditRegister, ""))
	require.NoError(t, audit.Log(ctx, alice.ID, models.AuditLogout, "127.0.0.1:3"))

	entries, err := audit.Recent(ctx, alice.ID, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditLogout, entries[0].Action)
	assert.Equal(t, models.AuditLogin, entries[1].Action)
	assert.Equal(t, "127.0.0.1:3", entries[0].RemoteAddr)

	// Entries are stamped start+1s..start+4s; keep the last two.
	n, err := audit.PruneBefore(ctx, start.Add(3*time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	entries, err = audit.Recent(ctx, alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.AuditLogout, entries[0].Action)

	none, err := audit.Recent(ctx, 999, 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
