package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crucial707/courier/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCount struct {
	n   int64
	err error
}

func (f fixedCount) Count(context.Context) (int64, error) { return f.n, f.err }

func TestStatsJob(t *testing.T) {
	job := StatsJob("@every 1m", fixedCount{n: 4}, fixedCount{n: 17})
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.Users))
	assert.Equal(t, 17.0, testutil.ToFloat64(metrics.Messages))

	failing := StatsJob("@every 1m", fixedCount{err: errors.New("db down")}, fixedCount{})
	assert.Error(t, failing.Run(context.Background()))
}

func TestRun_InvalidSpec(t *testing.T) {
	err := Run(context.Background(), Job{Name: "bad", Spec: "not a cron", Run: func(context.Context) error { return nil }})
	assert.Error(t, err)
}

func TestRun_RunsImmediatelyAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Job{Name: "tick", Spec: "@every 1h", Run: func(context.Context) error {
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		}})
	}()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run at start")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
