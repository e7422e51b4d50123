package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cashmoo/internal/core"
)

// AutoSettlement closes out one-off expenses whose due date has passed.
// Recurring expenses are untouched; their next occurrence simply moves on.
type AutoSettlement struct {
	store Store
}

func NewAutoSettlement(store Store) *AutoSettlement {
	return &AutoSettlement{store: store}
}

// SettleDue marks every active single-occurrence expense with a due date at
// or before now as paid and inactive. This conflates "overdue" with "paid";
// downstream consumers (dashboard balance, invoice totals) only understand a
// binary paid flag, so the transition stays automatic.
func (s *AutoSettlement) SettleDue(ctx context.Context, now time.Time) error {
	expenses, err := s.store.ListActiveExpenses(ctx)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	today := core.DateOf(now)
	settled := 0
	for _, e := range expenses {
		if e.Recurrence.Kind != core.Single || e.NextDate.IsZero() || !e.PaidAt.IsZero() {
			continue
		}
		if e.NextDate.After(today.Time) {
			continue
		}
		if err := s.store.SettleExpense(ctx, e.ID, now); err != nil {
			return fmt.Errorf("settle expense %d: %w", e.ID, err)
		}
		settled++
		slog.InfoContext(ctx, "expense auto-settled",
			"expense_id", e.ID,
			"name", e.Name,
			"due", e.NextDate.ISO())
	}

	if settled > 0 {
		slog.InfoContext(ctx, "auto-settlement complete", "settled", settled)
	}
	return nil
}
