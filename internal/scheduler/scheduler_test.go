package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaimytreling/AlgoMart/config"

	"github.com/stretchr/testify/require"
)

type countingTask struct {
	runs atomic.Int64
}

func (c *countingTask) run(ctx context.Context) (int, error) {
	c.runs.Add(1)
	return 1, nil
}

type taskFuncs struct{ f func(context.Context) (int, error) }

func (t taskFuncs) DispatchPending(ctx context.Context) (int, error) { return t.f(ctx) }

func (t taskFuncs) GeneratePacks(ctx context.Context) (int, error) { return t.f(ctx) }

func (t taskFuncs) UpdatePaymentCardStatuses(ctx context.Context) (int, error) { return t.f(ctx) }

func (t taskFuncs) ReconcileLedgerTransactions(ctx context.Context) (int, error) { return t.f(ctx) }

func TestRunnerStopsOnContextCancel(t *testing.T) {
	task := &countingTask{}
	stub := taskFuncs{f: task.run}

	cfg := config.SchedulerConfig{
		DispatchNotificationsInterval: time.Hour,
		GeneratePacksInterval:         time.Hour,
		UpdateCardStatusesInterval:    time.Hour,
		ReconcileLedgerInterval:       time.Hour,
	}

	runner, err := New(cfg, stub, stub, stub, stub)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after context cancellation")
	}
}

func TestRunnerExecutesTasks(t *testing.T) {
	task := &countingTask{}
	stub := taskFuncs{f: task.run}

	cfg := config.SchedulerConfig{
		DispatchNotificationsInterval: 10 * time.Millisecond,
		GeneratePacksInterval:         time.Hour,
		UpdateCardStatusesInterval:    time.Hour,
		ReconcileLedgerInterval:       time.Hour,
	}

	runner, err := New(cfg, stub, stub, stub, stub)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	require.Eventually(t, func() bool {
		return task.runs.Load() > 0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
