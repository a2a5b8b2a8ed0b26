// Package notify publishes domain events to interested observers.
//
// Delivery is at most once. Callers wrap the real channel in Async so a slow
// or unreachable broker never holds up a database write.
package notify

//go:generate mockgen -destination=mocks/mock_notify.go -package=mocks github.com/erazemk/premiki/internal/notify Notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Producer identifies this service in published envelopes.
const Producer = "premiki"

// Notifier publishes one event. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, event string, payload any) error
}

// Envelope wraps an event payload with delivery metadata.
type Envelope struct {
	MessageID  string    `json:"message_id"`
	EventType  string    `json:"event_type"`
	Producer   string    `json:"producer"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// NewEnvelope wraps payload with a fresh message ID.
func NewEnvelope(event string, payload any, at time.Time) Envelope {
	return Envelope{
		MessageID:  uuid.NewString(),
		EventType:  event,
		Producer:   Producer,
		OccurredAt: at.UTC(),
		Data:       payload,
	}
}
