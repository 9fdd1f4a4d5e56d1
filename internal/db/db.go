package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/crucial707/courier/internal/config"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Connect opens the database selected by cfg.DBDriver, applies pool settings and pings it.
func Connect(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	dialect, err := DialectOf(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DBDSN
	if dsn == "" {
		dsn = buildDSN(cfg)
	}

	db, err := sql.Open(driverName(cfg.DBDriver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}

	if dialect == SQLite {
		// One connection: SQLite serialises writers anyway, and an in-memory
		// database only lives as long as its connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	} else {
		if cfg.DBMaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.DBMaxOpenConns)
		}
		if cfg.DBMaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.DBMaxIdleConns)
		}
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func driverName(driver string) string {
	switch driver {
	case "pgx":
		return "pgx"
	case "mysql":
		return "mysql"
	case "sqlite":
		return "sqlite"
	default:
		return "postgres"
	}
}

func buildDSN(cfg config.Config) string {
	switch cfg.DBDriver {
	case "sqlite":
		return cfg.DBPath
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = cfg.DBUser
		mc.Passwd = cfg.DBPass
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		mc.Loc = time.UTC
		return mc.FormatDSN()
	default:
		return fmt.Sprintf(
			"host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass,
		)
	}
}
