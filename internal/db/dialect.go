package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Dialect is the SQL flavour spoken by the configured driver.
// Queries are written with ? placeholders and rebound per dialect.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// DialectOf maps a DB_DRIVER value to its dialect. Both lib/pq and pgx speak Postgres.
func DialectOf(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "sqlite":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Rebind rewrites ? placeholders to $1..$n for Postgres. Other dialects use ? natively.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Returning reports whether INSERT ... RETURNING is available.
func (d Dialect) Returning() bool {
	return d != MySQL
}

// Placeholders returns n comma-separated ? markers for an IN (...) list.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// InsertID runs an INSERT and returns the generated id column.
func InsertID(ctx context.Context, q DBTX, d Dialect, query string, args ...any) (int64, error) {
	if d.Returning() {
		var id int64
		err := q.QueryRowContext(ctx, d.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := q.ExecContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
