package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventNewMessage       EventKind = "new_message"
	EventThreadMessage    EventKind = "thread_message"
	EventThreadTransition EventKind = "thread_transition"
	EventAlertCreated     EventKind = "alert_created"
)

// Event is the ephemeral broadcast emitted right after a write. It is a
// latency optimization only: delivery is not guaranteed and a missed event is
// repaired by the next full resync from persisted rows.
type Event struct {
	Kind           EventKind `json:"kind"`
	RecipientID    uuid.UUID `json:"recipient_id"`
	SenderID       uuid.UUID `json:"sender_id,omitempty"`
	ConversationID uuid.UUID `json:"conversation_id,omitempty"`
	ThreadID       uuid.UUID `json:"thread_id,omitempty"`
	MessageID      uuid.UUID `json:"message_id,omitempty"`
	AlertID        uuid.UUID `json:"alert_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Bus carries events between server instances. One shared channel; routing to
// the recipient happens in the in-process Hub.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	StartForwarder(ctx context.Context, onEvent func(Event)) error
	Close() error
}
