// Package notify is the fire-and-observe notification sink. Delivery
// failures are observed and logged by callers but never block the
// operation that triggered them.
package notify

import (
	"context"

	appLog "agentbook/internal/log"
)

// Notifier surfaces a short notice to the agent (OS notification,
// status line, ...). Implementations must be cheap and non-blocking in
// spirit; the core never depends on their success.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// LogNotifier writes notices to the application log. It is the default
// sink for headless runs.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, title, body string) error {
	appLog.Info("notice", "title", title, "body", body)
	return nil
}
