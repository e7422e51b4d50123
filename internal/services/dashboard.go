package services

import (
	"context"
	"fmt"

	"cashmoo/internal/core"
)

// DashboardSnapshot is a read-only aggregation of the current store state.
// It is advisory: a snapshot taken while a tick is running may see the tick's
// intermediate state, which is fine.
type DashboardSnapshot struct {
	Balance           int64 // cents, may be negative
	MonthlyProjection int64 // cents, may be negative
	Distribution      []DistributionSlice
	Health            HealthIndicators
	Suggestions       []string
	CardsUsage        []CardUsage
	Empty             bool
}

type DistributionSlice struct {
	Kind        core.RecurrenceKind
	AmountCents int64
}

type HealthIndicators struct {
	SavingRate int   // 0..100
	CreditUse  int   // 0..100
	NetBalance int64 // cents
}

type CardUsage struct {
	CardID         int64
	Name           string
	LimitCents     int64
	UsedCents      int64
	AvailableCents int64
}

// distributionOrder fixes the slice order so snapshots are deterministic.
var distributionOrder = []core.RecurrenceKind{core.Single, core.Weekly, core.Monthly, core.Annual}

// DashboardAggregator derives balance, projection, health indicators and
// suggestions on demand. It only reads.
type DashboardAggregator struct {
	store Store
}

func NewDashboardAggregator(store Store) *DashboardAggregator {
	return &DashboardAggregator{store: store}
}

func (a *DashboardAggregator) Snapshot(ctx context.Context) (DashboardSnapshot, error) {
	incomes, err := a.store.ListIncomes(ctx)
	if err != nil {
		return DashboardSnapshot{}, fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := a.store.ListExpenses(ctx)
	if err != nil {
		return DashboardSnapshot{}, fmt.Errorf("list expenses: %w", err)
	}
	cards, err := a.store.ListCards(ctx)
	if err != nil {
		return DashboardSnapshot{}, fmt.Errorf("list cards: %w", err)
	}

	var confirmedIncome, totalIncome int64
	for _, in := range incomes {
		totalIncome += in.Amount.Cents
		if in.Status == core.IncomeConfirmed {
			confirmedIncome += in.Amount.Cents
		}
	}

	var paidExpense, totalExpense, cardUnpaid int64
	byKind := map[core.RecurrenceKind]int64{}
	for _, e := range expenses {
		totalExpense += e.Amount.Cents
		byKind[e.Recurrence.Kind] += e.Amount.Cents
		if e.Status == core.ExpensePaid {
			paidExpense += e.Amount.Cents
		}
		if e.Method == core.PayCard && e.Status != core.ExpensePaid {
			cardUnpaid += e.Amount.Cents
		}
	}

	balance := confirmedIncome - paidExpense

	var distribution []DistributionSlice
	for _, kind := range distributionOrder {
		if amount, ok := byKind[kind]; ok {
			distribution = append(distribution, DistributionSlice{Kind: kind, AmountCents: amount})
		}
	}

	var totalLimits int64
	usage := make([]CardUsage, 0, len(cards))
	for _, c := range cards {
		totalLimits += c.Limit.Cents
		var used int64
		for _, e := range expenses {
			if e.Method == core.PayCard && e.CardID == c.ID && e.Status != core.ExpensePaid {
				used += e.Amount.Cents
			}
		}
		available := c.Limit.Cents - used
		if available < 0 {
			available = 0
		}
		usage = append(usage, CardUsage{
			CardID:         c.ID,
			Name:           c.Name,
			LimitCents:     c.Limit.Cents,
			UsedCents:      used,
			AvailableCents: available,
		})
	}

	health := HealthIndicators{
		SavingRate: savingRate(totalIncome, totalExpense),
		CreditUse:  creditUse(cardUnpaid, totalLimits),
		NetBalance: balance,
	}

	return DashboardSnapshot{
		Balance:           balance,
		MonthlyProjection: totalIncome - totalExpense,
		Distribution:      distribution,
		Health:            health,
		Suggestions:       suggestions(health),
		CardsUsage:        usage,
		Empty:             len(incomes) == 0 && len(expenses) == 0 && len(cards) == 0,
	}, nil
}

func savingRate(totalIncome, totalExpense int64) int {
	if totalIncome <= 0 {
		return 0
	}
	return clampPercent((totalIncome - totalExpense) * 100 / totalIncome)
}

func creditUse(cardUnpaid, totalLimits int64) int {
	if totalLimits <= 0 {
		return 0
	}
	return clampPercent(cardUnpaid * 100 / totalLimits)
}

func clampPercent(v int64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

func suggestions(h HealthIndicators) []string {
	var out []string
	if h.SavingRate < 20 {
		out = append(out, "Increase your saving rate above 20%")
	}
	if h.CreditUse > 50 {
		out = append(out, "Reduce card usage below 50% of the limit")
	}
	if h.NetBalance < 0 {
		out = append(out, "Avoid new expenses until you reach a positive balance")
	}
	if len(out) == 0 {
		return []string{"Keep your current strategy"}
	}
	return out
}
