package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cashmoo/internal/core"
	"cashmoo/internal/notify"
)

// NotificationQueue detects upcoming due dates and turns them into
// deduplicated alert records, then delivers unread records at most once.
type NotificationQueue struct {
	store      Store
	notifier   notify.Notifier
	flushLimit int
}

func NewNotificationQueue(store Store, notifier notify.Notifier, flushLimit int) *NotificationQueue {
	if flushLimit <= 0 {
		flushLimit = 10
	}
	return &NotificationQueue{store: store, notifier: notifier, flushLimit: flushLimit}
}

// QueueUpcoming enqueues an alert for every unpaid expense, unpaid invoice
// and (when the profile enables income reminders) active income whose due
// date falls within horizonDays from now. The insert is conditional on the
// (kind, refId, dueDate) dedup key, so a previously read alert for the same
// due date is not recreated.
func (q *NotificationQueue) QueueUpcoming(ctx context.Context, now time.Time, horizonDays int) error {
	profile, err := q.store.GetProfile(ctx)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if !profile.NotificationsEnabled {
		return nil
	}

	today := core.DateOf(now)
	limit := today.AddDays(horizonDays)
	queued := 0

	expenses, err := q.store.ListActiveExpenses(ctx)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	for _, e := range expenses {
		if e.Status == core.ExpensePaid || e.NextDate.IsZero() {
			continue
		}
		if !within(e.NextDate, today, limit) {
			continue
		}
		inserted, err := q.store.InsertNotificationIfAbsent(ctx, core.Notification{
			Kind:      core.KindExpense,
			RefID:     e.ID,
			Title:     e.Name,
			DueDate:   e.NextDate,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("queue expense alert: %w", err)
		}
		if inserted {
			queued++
		}
	}

	invoices, err := q.store.ListUnpaidInvoices(ctx)
	if err != nil {
		return fmt.Errorf("list unpaid invoices: %w", err)
	}
	for _, inv := range invoices {
		if !within(inv.DueDate, today, limit) {
			continue
		}
		inserted, err := q.store.InsertNotificationIfAbsent(ctx, core.Notification{
			Kind:      core.KindInvoice,
			RefID:     inv.ID,
			Title:     "Card invoice",
			DueDate:   inv.DueDate,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("queue invoice alert: %w", err)
		}
		if inserted {
			queued++
		}
	}

	if profile.IncomeReminders {
		incomes, err := q.store.ListActiveIncomes(ctx)
		if err != nil {
			return fmt.Errorf("list incomes: %w", err)
		}
		for _, in := range incomes {
			if in.NextDate.IsZero() || !within(in.NextDate, today, limit) {
				continue
			}
			inserted, err := q.store.InsertNotificationIfAbsent(ctx, core.Notification{
				Kind:      core.KindIncome,
				RefID:     in.ID,
				Title:     in.Name,
				DueDate:   in.NextDate,
				CreatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("queue income alert: %w", err)
			}
			if inserted {
				queued++
			}
		}
	}

	if queued > 0 {
		slog.InfoContext(ctx, "alerts queued",
			"count", queued,
			"horizon_days", horizonDays)
	}
	return nil
}

// Flush delivers up to the configured number of unread alerts, newest first,
// then marks each as read. A delivery failure is logged but the record is
// still consumed: at-most-once, never a retry storm against a dead display
// channel.
func (q *NotificationQueue) Flush(ctx context.Context) (int, error) {
	items, err := q.store.ListUnreadNotifications(ctx, q.flushLimit)
	if err != nil {
		return 0, fmt.Errorf("list unread notifications: %w", err)
	}

	delivered := 0
	for _, n := range items {
		if err := q.notifier.Show(ctx, n.Title, "Due "+n.DueDate.ISO()); err != nil {
			slog.WarnContext(ctx, "alert delivery failed",
				"notification_id", n.ID,
				"title", n.Title,
				"error", err)
		} else {
			delivered++
		}
		if err := q.store.MarkNotificationRead(ctx, n.ID); err != nil {
			return delivered, fmt.Errorf("mark notification read: %w", err)
		}
	}
	return delivered, nil
}

// within reports whether d falls in [from, to] inclusive.
func within(d, from, to core.Date) bool {
	return !d.Before(from.Time) && !d.After(to.Time)
}
