package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cashmoo/internal/core"
)

const incomeCols = `id, name, company, amount_cents, recurrence_kind,
	recurrence_weekday, recurrence_day, recurrence_month,
	start_date, end_date, next_date, active, status`

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (name, company, amount_cents, recurrence_kind,
		 recurrence_weekday, recurrence_day, recurrence_month,
		 start_date, end_date, next_date, active, status)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		in.Name, in.Company, in.Amount.Cents, string(in.Recurrence.Kind),
		in.Recurrence.Weekday, in.Recurrence.Day, in.Recurrence.Month,
		in.StartDate.ISO(), nullDate(in.EndDate), nullDate(in.NextDate),
		in.Active, string(in.Status))
	if err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	in.ID, err = res.LastInsertId()
	if err != nil {
		return core.Income{}, fmt.Errorf("create income id: %w", err)
	}
	return in, nil
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, in core.Income) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE incomes SET name=?, company=?, amount_cents=?, recurrence_kind=?,
		 recurrence_weekday=?, recurrence_day=?, recurrence_month=?,
		 end_date=?, next_date=?, active=?, status=? WHERE id=?`,
		in.Name, in.Company, in.Amount.Cents, string(in.Recurrence.Kind),
		in.Recurrence.Weekday, in.Recurrence.Day, in.Recurrence.Month,
		nullDate(in.EndDate), nullDate(in.NextDate), in.Active, string(in.Status), in.ID)
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}
	return requireRow(res, "update income")
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM incomes WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	return requireRow(res, "delete income")
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+incomeCols+` FROM incomes WHERE id=?`, id)
	in, err := scanIncome(row)
	if err != nil {
		return core.Income{}, notFound(err, "get income")
	}
	return in, nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context) ([]core.Income, error) {
	return r.queryIncomes(ctx, `SELECT `+incomeCols+` FROM incomes ORDER BY id DESC`)
}

func (r *SQLiteRepository) ListActiveIncomes(ctx context.Context) ([]core.Income, error) {
	return r.queryIncomes(ctx, `SELECT `+incomeCols+` FROM incomes WHERE active=1 ORDER BY id DESC`)
}

func (r *SQLiteRepository) SetIncomeStatus(ctx context.Context, id int64, status core.IncomeStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE incomes SET status=? WHERE id=?`, string(status), id)
	if err != nil {
		return fmt.Errorf("set income status: %w", err)
	}
	return requireRow(res, "set income status")
}

func (r *SQLiteRepository) queryIncomes(ctx context.Context, query string, args ...any) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var incomes []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		incomes = append(incomes, in)
	}
	return incomes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncome(row rowScanner) (core.Income, error) {
	var (
		in                core.Income
		kind              string
		startDate         string
		endDate, nextDate sql.NullString
		status            string
	)
	err := row.Scan(&in.ID, &in.Name, &in.Company, &in.Amount.Cents, &kind,
		&in.Recurrence.Weekday, &in.Recurrence.Day, &in.Recurrence.Month,
		&startDate, &endDate, &nextDate, &in.Active, &status)
	if err != nil {
		return core.Income{}, err
	}
	in.Recurrence.Kind = core.RecurrenceKind(kind)
	in.Status = core.IncomeStatus(status)
	if in.StartDate, err = core.ParseDate(startDate); err != nil {
		return core.Income{}, err
	}
	if in.EndDate, err = scanDate(endDate); err != nil {
		return core.Income{}, err
	}
	if in.NextDate, err = scanDate(nextDate); err != nil {
		return core.Income{}, err
	}
	return in, nil
}

const expenseCols = `id, name, description, amount_cents, recurrence_kind,
	recurrence_weekday, recurrence_day, recurrence_month,
	method, card_id, next_date, active, paid_at, status`

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (name, description, amount_cents, recurrence_kind,
		 recurrence_weekday, recurrence_day, recurrence_month,
		 method, card_id, next_date, active, paid_at, status)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.Name, e.Description, e.Amount.Cents, string(e.Recurrence.Kind),
		e.Recurrence.Weekday, e.Recurrence.Day, e.Recurrence.Month,
		string(e.Method), nullID(e.CardID), nullDate(e.NextDate),
		e.Active, nullTime(e.PaidAt), string(e.Status))
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense id: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET name=?, description=?, amount_cents=?, recurrence_kind=?,
		 recurrence_weekday=?, recurrence_day=?, recurrence_month=?,
		 method=?, card_id=?, next_date=?, active=?, paid_at=?, status=? WHERE id=?`,
		e.Name, e.Description, e.Amount.Cents, string(e.Recurrence.Kind),
		e.Recurrence.Weekday, e.Recurrence.Day, e.Recurrence.Month,
		string(e.Method), nullID(e.CardID), nullDate(e.NextDate),
		e.Active, nullTime(e.PaidAt), string(e.Status), e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res, "update expense")
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res, "delete expense")
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseCols+` FROM expenses WHERE id=?`, id)
	e, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, notFound(err, "get expense")
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return r.queryExpenses(ctx, `SELECT `+expenseCols+` FROM expenses ORDER BY id DESC`)
}

func (r *SQLiteRepository) ListActiveExpenses(ctx context.Context) ([]core.Expense, error) {
	return r.queryExpenses(ctx, `SELECT `+expenseCols+` FROM expenses WHERE active=1 ORDER BY id DESC`)
}

func (r *SQLiteRepository) SetExpenseStatus(ctx context.Context, id int64, status core.ExpenseStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE expenses SET status=? WHERE id=?`, string(status), id)
	if err != nil {
		return fmt.Errorf("set expense status: %w", err)
	}
	return requireRow(res, "set expense status")
}

// MarkExpensePaid records a user-initiated payment without deactivating the
// expense; recurring obligations keep producing occurrences.
func (r *SQLiteRepository) MarkExpensePaid(ctx context.Context, id int64, paidAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET status='paid', paid_at=? WHERE id=?`,
		nullTime(paidAt), id)
	if err != nil {
		return fmt.Errorf("mark expense paid: %w", err)
	}
	return requireRow(res, "mark expense paid")
}

// SettleExpense is the scheduler's automatic transition for overdue one-off
// expenses: paid, timestamped and deactivated in one update.
func (r *SQLiteRepository) SettleExpense(ctx context.Context, id int64, paidAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET status='paid', paid_at=?, active=0 WHERE id=?`,
		nullTime(paidAt), id)
	if err != nil {
		return fmt.Errorf("settle expense: %w", err)
	}
	return requireRow(res, "settle expense")
}

func (r *SQLiteRepository) CountCardExpenses(ctx context.Context, cardID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE card_id=?`, cardID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count card expenses: %w", err)
	}
	return n, nil
}

// SumCardExpensesDue totals the active card expenses of a card whose next due
// date falls in [from, to] inclusive.
func (r *SQLiteRepository) SumCardExpensesDue(ctx context.Context, cardID int64, from, to core.Date) (int64, error) {
	var sum int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		 WHERE method='card' AND card_id=? AND active=1
		 AND next_date IS NOT NULL
		 AND date(next_date) BETWEEN date(?) AND date(?)`,
		cardID, from.ISO(), to.ISO()).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum card expenses: %w", err)
	}
	return sum, nil
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                core.Expense
		kind, method     string
		cardID           sql.NullInt64
		nextDate, paidAt sql.NullString
		status           string
	)
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Amount.Cents, &kind,
		&e.Recurrence.Weekday, &e.Recurrence.Day, &e.Recurrence.Month,
		&method, &cardID, &nextDate, &e.Active, &paidAt, &status)
	if err != nil {
		return core.Expense{}, err
	}
	e.Recurrence.Kind = core.RecurrenceKind(kind)
	e.Method = core.PaymentMethod(method)
	e.Status = core.ExpenseStatus(status)
	if cardID.Valid {
		e.CardID = cardID.Int64
	}
	if e.NextDate, err = scanDate(nextDate); err != nil {
		return core.Expense{}, err
	}
	if e.PaidAt, err = scanTime(paidAt); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, core.ErrNotFound)
	}
	return nil
}
