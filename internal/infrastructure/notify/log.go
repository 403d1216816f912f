// Package notify provides Notifier implementations that hand events to an
// outside delivery channel.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/ersonp/memora/internal/domain/entities"
	"github.com/ersonp/memora/internal/domain/ports"
)

// LogNotifier writes every notification as a structured log record. It is
// the default when no delivery channel is configured.
type LogNotifier struct {
	logger *slog.Logger
	level  slog.Level
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that logs at info level.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger, level: slog.LevelInfo}
}

// Notify logs the notification with its payload as attributes.
func (n *LogNotifier) Notify(ctx context.Context, userID string, kind entities.NotificationKind, payload map[string]any) error {
	if userID == "" {
		return errors.New("notification recipient is required")
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, payload[k]))
	}

	n.logger.LogAttrs(ctx, n.level, "notification",
		slog.String("user_id", userID),
		slog.String("kind", string(kind)),
		slog.Group("payload", attrs...),
	)
	return nil
}
