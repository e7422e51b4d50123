package storage

import (
	"context"
	"fmt"
	"time"

	"cashmoo/internal/core"
)

const notificationCols = `id, kind, ref_id, title, due_date, created_at, read`

// InsertNotificationIfAbsent inserts an alert unless a record with the same
// (kind, ref_id, due_date) already exists, read or not. Returns whether a row
// was actually inserted.
func (r *SQLiteRepository) InsertNotificationIfAbsent(ctx context.Context, n core.Notification) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (kind, ref_id, title, due_date, created_at, read)
		 VALUES (?,?,?,?,?,0)
		 ON CONFLICT(kind, ref_id, due_date) DO NOTHING`,
		string(n.Kind), n.RefID, n.Title, n.DueDate.ISO(),
		n.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return rows > 0, nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context) ([]core.Notification, error) {
	return r.queryNotifications(ctx,
		`SELECT `+notificationCols+` FROM notifications ORDER BY created_at DESC, id DESC`)
}

func (r *SQLiteRepository) ListUnreadNotifications(ctx context.Context, limit int) ([]core.Notification, error) {
	return r.queryNotifications(ctx,
		`SELECT `+notificationCols+` FROM notifications
		 WHERE read=0 ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read=1 WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRow(res, "mark notification read")
}

// DeleteNotificationsFor removes all alerts referencing an entity; called
// before the entity itself is deleted.
func (r *SQLiteRepository) DeleteNotificationsFor(ctx context.Context, kind core.NotificationKind, refID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE kind=? AND ref_id=?`, string(kind), refID)
	if err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) queryNotifications(ctx context.Context, query string, args ...any) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []core.Notification
	for rows.Next() {
		var (
			n             core.Notification
			kind, dueDate string
			createdAt     string
		)
		if err := rows.Scan(&n.ID, &kind, &n.RefID, &n.Title, &dueDate, &createdAt, &n.Read); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Kind = core.NotificationKind(kind)
		if n.DueDate, err = core.ParseDate(dueDate); err != nil {
			return nil, fmt.Errorf("scan notification due date: %w", err)
		}
		if n.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("scan notification created at: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
