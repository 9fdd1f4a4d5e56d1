package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/courier/internal/auth"
	"github.com/crucial707/courier/internal/config"
	"github.com/crucial707/courier/internal/db"
	"github.com/crucial707/courier/internal/logging"
	"github.com/crucial707/courier/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Setup(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	// Connect to database FIRST
	conn, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	dialect, err := db.DialectOf(cfg.DBDriver)
	if err != nil {
		return err
	}
	if err := db.Migrate(ctx, conn, dialect); err != nil {
		return err
	}
	slog.Info("database ready", "driver", cfg.DBDriver)

	revoker, err := newRevoker(ctx, cfg)
	if err != nil {
		return err
	}
	if c, ok := revoker.(io.Closer); ok {
		defer c.Close()
	}

	a, err := newApp(conn, cfg, revoker)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return scheduler.Run(ctx, a.jobs()...)
	})

	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr, "tls", cfg.TLSEnabled())
		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newRevoker uses Redis when REDIS_ADDR is set so logouts hold across replicas.
func newRevoker(ctx context.Context, cfg config.Config) (auth.Revoker, error) {
	if cfg.RedisAddr == "" {
		slog.Info("token revocation in memory")
		return auth.NewMemoryRevoker(), nil
	}
	r, err := auth.NewRedisRevoker(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	slog.Info("token revocation in redis", "addr", cfg.RedisAddr)
	return r, nil
}

// jobs lists the periodic housekeeping for this process.
func (a *app) jobs() []scheduler.Job {
	jobs := []scheduler.Job{
		scheduler.StatsJob(a.cfg.StatsCron, a.users, a.messages),
		{
			Name: "ratelimit-evict",
			Spec: "@every 10m",
			Run: func(context.Context) error {
				if n := a.limiter.Evict(30 * time.Minute); n > 0 {
					slog.Debug("evicted idle rate limit buckets", "count", n)
				}
				return nil
			},
		},
	}
	if days := a.cfg.AuditRetentionDays; days > 0 {
		jobs = append(jobs, scheduler.Job{
			Name: "audit-prune",
			Spec: "@daily",
			Run: func(ctx context.Context) error {
				cutoff := time.Now().AddDate(0, 0, -days)
				n, err := a.audit.PruneBefore(ctx, cutoff)
				if err != nil {
					return err
				}
				if n > 0 {
					slog.Info("pruned audit log", "rows", n, "before", cutoff)
				}
				return nil
			},
		})
	}
	if m, ok := a.revoker.(*auth.MemoryRevoker); ok {
		jobs = append(jobs, scheduler.Job{
			Name: "revocations-prune",
			Spec: "@hourly",
			Run: func(context.Context) error {
				m.Prune()
				return nil
			},
		})
	}
	return jobs
}
