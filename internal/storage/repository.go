// Package storage persists the financial records in a local SQLite database.
// The uniqueness invariants of the domain (one invoice per card per billing
// period, one notification per dedup key) are backed by unique indexes, and
// the insert paths treat a conflict as "already exists".
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cashmoo/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) GetProfile(ctx context.Context) (core.Profile, error) {
	var p core.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT name, currency, date_format, notifications_enabled, income_reminders
		 FROM user_profile WHERE id = 1`).
		Scan(&p.Name, &p.Currency, &p.DateFormat, &p.NotificationsEnabled, &p.IncomeReminders)
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, p core.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_profile SET name=?, currency=?, date_format=?,
		 notifications_enabled=?, income_reminders=? WHERE id = 1`,
		p.Name, p.Currency, p.DateFormat, p.NotificationsEnabled, p.IncomeReminders)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// nullDate converts an optional Date to a driver value.
func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.ISO()
}

// nullTime converts an optional timestamp to a driver value.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func scanDate(s sql.NullString) (core.Date, error) {
	if !s.Valid || s.String == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s.String)
}

func scanTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s.String)
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, core.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
