//go:build unit

package worker_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPeriodic_RunsOnStartAndOnTick(t *testing.T) {
	var runs atomic.Int32
	p := worker.NewPeriodic("test", 10*time.Millisecond, func(context.Context) (int, error) {
		runs.Add(1)
		return 1, nil
	}, discard())

	p.Start(context.Background())
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop(context.Background()))
}

func TestPeriodic_FirstRunDoesNotWaitForTick(t *testing.T) {
	ran := make(chan struct{}, 1)
	p := worker.NewPeriodic("test", time.Hour, func(context.Context) (int, error) {
		select {
		case ran <- struct{}{}:
		default:
		}
		return 0, nil
	}, discard())

	p.Start(context.Background())
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task did not run on start")
	}
	require.NoError(t, p.Stop(context.Background()))
}

func TestPeriodic_SurvivesErrorsAndPanics(t *testing.T) {
	var runs atomic.Int32
	p := worker.NewPeriodic("test", 5*time.Millisecond, func(context.Context) (int, error) {
		switch runs.Add(1) {
		case 1:
			return 0, errors.New("boom")
		case 2:
			panic("unexpected")
		}
		return 1, nil
	}, discard())

	p.Start(context.Background())
	assert.Eventually(t, func() bool { return runs.Load() >= 4 }, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop(context.Background()))
}

func TestPeriodic_StopCancelsRunningTask(t *testing.T) {
	started := make(chan struct{})
	p := worker.NewPeriodic("test", time.Hour, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	}, discard())

	p.Start(context.Background())
	<-started
	require.NoError(t, p.Stop(context.Background()))
}

func TestPeriodic_StartStopAreIdempotent(t *testing.T) {
	p := worker.NewPeriodic("test", time.Hour, func(context.Context) (int, error) {
		return 0, nil
	}, discard())

	require.NoError(t, p.Stop(context.Background()))
	p.Start(context.Background())
	p.Start(context.Background())
	require.NoError(t, p.Stop(context.Background()))
	require.NoError(t, p.Stop(context.Background()))
}
