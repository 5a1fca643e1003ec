package services

import (
	"context"
	"log/slog"

	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
	"github.com/splittyhq/splitty_backend/internal/utils"
)

// LogNotifier surfaces cross-device changes to the owner. Without a push
// channel the daemon logs the notification and captures it as an
// analytics event; the UI reads the refreshed state on its next poll.
type LogNotifier struct {
	logger  *slog.Logger
	posthog *utils.PosthogClientWrapper
	ownerID string
}

var _ portssvc.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger, posthog *utils.PosthogClientWrapper, ownerID string) *LogNotifier {
	return &LogNotifier{logger: logger, posthog: posthog, ownerID: ownerID}
}

// Notify never blocks and never fails the caller.
func (n *LogNotifier) Notify(ctx context.Context, title, body string) {
	n.logger.Info("Notification", slog.String("title", title), slog.String("body", body))
	if n.posthog != nil && n.posthog.IsInitialized() {
		n.posthog.Enqueue(n.ownerID, "notification_emitted", map[string]any{"title": title})
	}
}
