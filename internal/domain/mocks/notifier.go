package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/memora/internal/domain/entities"
)

// Notification is a recorded Notify call.
type Notification struct {
	UserID  string
	Kind    entities.NotificationKind
	Payload map[string]any
}

// Notifier is a mock implementation of ports.Notifier that records calls.
type Notifier struct {
	Err error

	mu   sync.Mutex
	sent []Notification
}

// Notify records the notification and returns the configured error.
func (m *Notifier) Notify(_ context.Context, userID string, kind entities.NotificationKind, payload map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Notification{UserID: userID, Kind: kind, Payload: payload})
	return m.Err
}

// Sent returns a copy of every recorded notification.
func (m *Notifier) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentOfKind returns the recorded notifications of one kind.
func (m *Notifier) SentOfKind(kind entities.NotificationKind) []Notification {
	var out []Notification
	for _, n := range m.Sent() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}
