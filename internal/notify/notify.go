// Package notify abstracts the channel due-date alerts are delivered on.
// Delivery is best effort; the queue consumes records whether or not the
// channel accepted them.
package notify

import (
	"context"
	"log/slog"
)

// Notifier shows a single alert to the user.
type Notifier interface {
	Show(ctx context.Context, title, body string) error
}

// LogNotifier writes alerts to the structured log. It is the fallback channel
// when no external delivery is configured.
type LogNotifier struct{}

func (LogNotifier) Show(ctx context.Context, title, body string) error {
	slog.InfoContext(ctx, "notification", "title", title, "body", body)
	return nil
}
