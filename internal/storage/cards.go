package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cashmoo/internal/core"
)

func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (name, limit_cents, closing_day, payment_day) VALUES (?,?,?,?)`,
		c.Name, c.Limit.Cents, c.ClosingDay, c.PaymentDay)
	if err != nil {
		return core.Card{}, fmt.Errorf("create card: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Card{}, fmt.Errorf("create card id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCard(ctx context.Context, c core.Card) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cards SET name=?, limit_cents=?, closing_day=?, payment_day=? WHERE id=?`,
		c.Name, c.Limit.Cents, c.ClosingDay, c.PaymentDay, c.ID)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return requireRow(res, "update card")
}

// DeleteCard removes a card with its invoices and their notifications, and
// detaches linked expenses instead of deleting them. The card service checks
// the linked-expense precondition before calling this.
func (r *SQLiteRepository) DeleteCard(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete card: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM notifications WHERE kind='invoice'
		 AND ref_id IN (SELECT id FROM invoices WHERE card_id=?)`, id); err != nil {
		return fmt.Errorf("delete card notifications: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE card_id=?`, id); err != nil {
		return fmt.Errorf("delete card invoices: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE expenses SET method='manual', card_id=NULL WHERE card_id=?`, id); err != nil {
		return fmt.Errorf("detach card expenses: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete card: %w", err)
	} else if n == 0 {
		return fmt.Errorf("delete card: %w", core.ErrNotFound)
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetCard(ctx context.Context, id int64) (core.Card, error) {
	var c core.Card
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, limit_cents, closing_day, payment_day FROM cards WHERE id=?`, id).
		Scan(&c.ID, &c.Name, &c.Limit.Cents, &c.ClosingDay, &c.PaymentDay)
	if err != nil {
		return core.Card{}, notFound(err, "get card")
	}
	return c, nil
}

func (r *SQLiteRepository) FindCardByName(ctx context.Context, name string) (core.Card, error) {
	var c core.Card
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, limit_cents, closing_day, payment_day
		 FROM cards WHERE lower(name) = lower(?)`, name).
		Scan(&c.ID, &c.Name, &c.Limit.Cents, &c.ClosingDay, &c.PaymentDay)
	if err != nil {
		return core.Card{}, notFound(err, "find card by name")
	}
	return c, nil
}

func (r *SQLiteRepository) ListCards(ctx context.Context) ([]core.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, limit_cents, closing_day, payment_day FROM cards ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []core.Card
	for rows.Next() {
		var c core.Card
		if err := rows.Scan(&c.ID, &c.Name, &c.Limit.Cents, &c.ClosingDay, &c.PaymentDay); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

const invoiceCols = `id, card_id, year, month, closing_date, due_date, total_cents, paid, paid_at`

// UpsertInvoiceIfAbsent creates an invoice for a billing period unless one
// already exists. The unique index on (card_id, year, month) makes re-running
// the tick a no-op.
func (r *SQLiteRepository) UpsertInvoiceIfAbsent(ctx context.Context, inv core.Invoice) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (card_id, year, month, closing_date, due_date, total_cents, paid)
		 VALUES (?,?,?,?,?,0,0)
		 ON CONFLICT(card_id, year, month) DO NOTHING`,
		inv.CardID, inv.Year, inv.Month, inv.ClosingDate.ISO(), inv.DueDate.ISO())
	if err != nil {
		return fmt.Errorf("upsert invoice: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetInvoice(ctx context.Context, id int64) (core.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE id=?`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return core.Invoice{}, notFound(err, "get invoice")
	}
	return inv, nil
}

func (r *SQLiteRepository) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	return r.queryInvoices(ctx,
		`SELECT `+invoiceCols+` FROM invoices ORDER BY year DESC, month DESC`)
}

func (r *SQLiteRepository) ListCardInvoices(ctx context.Context, cardID int64) ([]core.Invoice, error) {
	return r.queryInvoices(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE card_id=? ORDER BY year DESC, month DESC`, cardID)
}

func (r *SQLiteRepository) ListUnpaidInvoices(ctx context.Context) ([]core.Invoice, error) {
	return r.queryInvoices(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE paid=0 ORDER BY year DESC, month DESC`)
}

func (r *SQLiteRepository) UpdateInvoiceTotal(ctx context.Context, id int64, total core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET total_cents=? WHERE id=?`, total.Cents, id)
	if err != nil {
		return fmt.Errorf("update invoice total: %w", err)
	}
	return requireRow(res, "update invoice total")
}

func (r *SQLiteRepository) MarkInvoicePaid(ctx context.Context, id int64, paidAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET paid=1, paid_at=? WHERE id=?`, nullTime(paidAt), id)
	if err != nil {
		return fmt.Errorf("mark invoice paid: %w", err)
	}
	return requireRow(res, "mark invoice paid")
}

func (r *SQLiteRepository) queryInvoices(ctx context.Context, query string, args ...any) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []core.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func scanInvoice(row rowScanner) (core.Invoice, error) {
	var (
		inv                  core.Invoice
		closingDate, dueDate string
		paidAt               sql.NullString
	)
	err := row.Scan(&inv.ID, &inv.CardID, &inv.Year, &inv.Month,
		&closingDate, &dueDate, &inv.Total.Cents, &inv.Paid, &paidAt)
	if err != nil {
		return core.Invoice{}, err
	}
	if inv.ClosingDate, err = core.ParseDate(closingDate); err != nil {
		return core.Invoice{}, err
	}
	if inv.DueDate, err = core.ParseDate(dueDate); err != nil {
		return core.Invoice{}, err
	}
	if inv.PaidAt, err = scanTime(paidAt); err != nil {
		return core.Invoice{}, err
	}
	return inv, nil
}
