package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/crucial707/courier/internal/db"
	"github.com/crucial707/courier/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB      *sql.DB
	Dialect db.Dialect

	// Cost is the bcrypt work factor. Zero means bcrypt.DefaultCost.
	Cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(conn *sql.DB, dialect db.Dialect) *UserRepo {
	return &UserRepo{DB: conn, Dialect: dialect}
}

func (r *UserRepo) cost() int {
	if r.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return r.Cost
}

// ==========================
// Register
// ==========================

// Register stores a new user with a bcrypt hash of password. Uniqueness is left to the
// users.username constraint, so concurrent registrations of one name yield exactly one winner.
func (r *UserRepo) Register(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost())
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	user.ID, err = db.InsertID(ctx, r.DB, r.Dialect,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		user.Username, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// ==========================
// Authenticate
// ==========================
func (r *UserRepo) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user := &models.User{}
	err := r.DB.QueryRowContext(ctx,
		r.Dialect.Rebind(`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`),
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		// Spend the same bcrypt time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(r.dummy(), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (r *UserRepo) dummy() []byte {
	r.dummyOnce.Do(func() {
		r.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("courier-no-such-user"), r.cost())
	})
	return r.dummyHash
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) Get(ctx context.Context, id int64) (*models.User, error) {
	return getUser(ctx, r.DB, r.Dialect, id)
}

func getUser(ctx context.Context, q db.DBTX, d db.Dialect, id int64) (*models.User, error) {
	user := &models.User{}
	err := q.QueryRowContext(ctx,
		d.Rebind(`SELECT id, username, created_at FROM users WHERE id = ?`),
		id,
	).Scan(&user.ID, &user.Username, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// ==========================
// List Others
// ==========================

// ListOthers returns every user except excludingID, ordered by id.
func (r *UserRepo) ListOthers(ctx context.Context, excludingID int64) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		r.Dialect.Rebind(`SELECT id, username, created_at FROM users WHERE id <> ? ORDER BY id`),
		excludingID,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanUsers(rows)
}

// ==========================
// Count
// ==========================
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func scanUsers(rows *sql.Rows) ([]models.User, error) {
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
