package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crucial707/courier/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Job is a named piece of periodic housekeeping.
type Job struct {
	Name string
	Spec string // standard 5-field cron expression or @every/@hourly descriptor
	Run  func(ctx context.Context) error
}

// Run registers jobs on a cron scheduler and blocks until ctx is cancelled, then waits
// for running jobs to finish. Each job runs once immediately so gauges are populated at start.
func Run(ctx context.Context, jobs ...Job) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	for _, j := range jobs {
		j := j
		fn := func() {
			start := time.Now()
			if err := j.Run(ctx); err != nil {
				slog.Error("scheduled job failed", "job", j.Name, "error", err)
				return
			}
			slog.Debug("scheduled job done", "job", j.Name, "duration_ms", time.Since(start).Milliseconds())
		}
		if _, err := c.AddFunc(j.Spec, fn); err != nil {
			return fmt.Errorf("scheduler: job %s: invalid cron %q: %w", j.Name, j.Spec, err)
		}
		slog.Info("scheduler: added job", "job", j.Name, "cron", j.Spec)
		fn()
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Counter is satisfied by the user and message repositories.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// StatsJob refreshes the user and message gauges from the database.
func StatsJob(spec string, users, messages Counter) Job {
	return Job{
		Name: "stats",
		Spec: spec,
		Run: func(ctx context.Context) error {
			u, err := users.Count(ctx)
			if err != nil {
				return fmt.Errorf("count users: %w", err)
			}
			m, err := messages.Count(ctx)
			if err != nil {
				return fmt.Errorf("count messages: %w", err)
			}
			metrics.SetTotals(u, m)
			return nil
		},
	}
}
