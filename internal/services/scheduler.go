package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cashmoo/internal/core"
	"cashmoo/internal/notify"
)

// Scheduler drives the periodic tick: invoice cycle, notification queue,
// auto settlement, then a flush of whatever the queue produced. The clock is
// injected so ticks are testable with a synthetic now.
type Scheduler struct {
	invoices    *InvoiceCycleManager
	queue       *NotificationQueue
	settlement  *AutoSettlement
	clock       func() time.Time
	interval    time.Duration
	horizonDays int

	mu sync.Mutex // guards against overlapping ticks
}

// SchedulerOptions configures the tick cadence and alert horizon.
type SchedulerOptions struct {
	Interval    time.Duration
	HorizonDays int
	FlushLimit  int
	Clock       func() time.Time
}

func NewScheduler(store Store, notifier notify.Notifier, opts SchedulerOptions) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Minute
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 7
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Scheduler{
		invoices:    NewInvoiceCycleManager(store),
		queue:       NewNotificationQueue(store, notifier, opts.FlushLimit),
		settlement:  NewAutoSettlement(store),
		clock:       opts.Clock,
		interval:    opts.Interval,
		horizonDays: opts.HorizonDays,
	}
}

// RunTick executes one tick at the injected clock's current time.
func (s *Scheduler) RunTick(ctx context.Context) error {
	return s.RunTickAt(ctx, s.clock())
}

// RunTickAt executes one complete ordered tick. Each step finishes over all
// records before the next begins; a storage error aborts the remaining steps
// and the next scheduled tick retries the whole sequence. Ticks never
// overlap: a tick that fires while another is running is skipped.
func (s *Scheduler) RunTickAt(ctx context.Context, now time.Time) error {
	if !s.mu.TryLock() {
		slog.WarnContext(ctx, "tick already running, skipping")
		return nil
	}
	defer s.mu.Unlock()

	started := time.Now()
	if err := s.invoices.EnsureCycle(ctx, now); err != nil {
		slog.ErrorContext(ctx, "tick aborted in invoice cycle", "error", err)
		return err
	}
	if err := s.queue.QueueUpcoming(ctx, now, s.horizonDays); err != nil {
		slog.ErrorContext(ctx, "tick aborted in notification queue", "error", err)
		return err
	}
	if err := s.settlement.SettleDue(ctx, now); err != nil {
		slog.ErrorContext(ctx, "tick aborted in auto settlement", "error", err)
		return err
	}
	delivered, err := s.queue.Flush(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "tick aborted in flush", "error", err)
		return err
	}

	slog.InfoContext(ctx, "tick complete",
		"delivered", delivered,
		"elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

// Start runs ticks on the configured interval until the context is done.
// An initial tick fires immediately. Tick errors are logged, never fatal;
// the scheduler keeps its cadence regardless of any single tick's outcome.
func (s *Scheduler) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "scheduler started",
		"interval", s.interval,
		"horizon_days", s.horizonDays)

	if err := s.RunTick(ctx); err != nil {
		slog.ErrorContext(ctx, "initial tick failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunTick(ctx); err != nil {
				slog.ErrorContext(ctx, "tick failed", "error", err)
			}
		}
	}
}

// PayInvoice exposes invoice payment to the application surface.
func (s *Scheduler) PayInvoice(ctx context.Context, id int64) (core.Invoice, error) {
	return s.invoices.PayInvoice(ctx, id, s.clock())
}
