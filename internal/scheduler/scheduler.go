package scheduler

import (
	"context"
	"time"

	"github.com/jaimytreling/AlgoMart/config"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Task collaborators. Each task returns how many items it processed; the
// runner only logs outcomes, it never fails the process on a task error.

type notificationDispatcher interface {
	DispatchPending(ctx context.Context) (int, error)
}

type packGenerator interface {
	GeneratePacks(ctx context.Context) (int, error)
}

type cardReconciler interface {
	UpdatePaymentCardStatuses(ctx context.Context) (int, error)
}

type ledgerReconciler interface {
	ReconcileLedgerTransactions(ctx context.Context) (int, error)
}

// Runner owns the recurring background tasks. Every task is registered in
// singleton mode so a slow run is never overlapped by the next tick.
type Runner struct {
	scheduler     gocron.Scheduler
	cfg           config.SchedulerConfig
	notifications notificationDispatcher
	packs         packGenerator
	payments      cardReconciler
	auctions      ledgerReconciler
}

// New creates a runner with the four recurring tasks registered
func New(cfg config.SchedulerConfig, notifications notificationDispatcher, packs packGenerator, payments cardReconciler, auctions ledgerReconciler) (*Runner, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create scheduler")
	}

	return &Runner{
		scheduler:     scheduler,
		cfg:           cfg,
		notifications: notifications,
		packs:         packs,
		payments:      payments,
		auctions:      auctions,
	}, nil
}

// Run registers the tasks, starts the scheduler and blocks until the context
// is cancelled, then shuts the scheduler down.
func (r *Runner) Run(ctx context.Context) error {
	jobs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context) (int, error)
	}{
		{"dispatch-notifications", r.cfg.DispatchNotificationsInterval, r.notifications.DispatchPending},
		{"generate-packs", r.cfg.GeneratePacksInterval, r.packs.GeneratePacks},
		{"update-payment-card-statuses", r.cfg.UpdateCardStatusesInterval, r.payments.UpdatePaymentCardStatuses},
		{"reconcile-ledger-transactions", r.cfg.ReconcileLedgerInterval, r.auctions.ReconcileLedgerTransactions},
	}

	for _, job := range jobs {
		name, run := job.name, job.run
		_, err := r.scheduler.NewJob(
			gocron.DurationJob(job.interval),
			gocron.NewTask(func() {
				start := time.Now()
				count, err := run(ctx)
				if err != nil {
					log.Error().Err(err).Str("task", name).Msg("scheduled task failed")
					return
				}
				log.Info().
					Str("task", name).
					Int("processed", count).
					Dur("elapsed", time.Since(start)).
					Msg("scheduled task completed")
			}),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return errors.Wrapf(err, "failed to register task %s", name)
		}
	}

	r.scheduler.Start()

	<-ctx.Done()

	if err := r.scheduler.Shutdown(); err != nil {
		return errors.Wrap(err, "scheduler shutdown failed")
	}
	return nil
}
