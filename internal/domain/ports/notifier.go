package ports

import (
	"context"

	"github.com/ersonp/memora/internal/domain/entities"
)

// Notifier hands events to the external notification collaborator.
// Delivery is fire-and-forget: an error means the hand-off failed, never
// that the recipient did not read it.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind entities.NotificationKind, payload map[string]any) error
}
