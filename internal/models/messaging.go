package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Conversation is a direct 1:1 chat, exactly one per unordered user pair.
// The pair is stored ordered (UserA < UserB lexically) to back the unique
// constraint.
type Conversation struct {
	ID        uuid.UUID `db:"id"`
	UserA     uuid.UUID `db:"user_a"`
	UserB     uuid.UUID `db:"user_b"`
	CreatedAt time.Time `db:"created_at"`
}

// Other returns the conversation peer of the given user.
func (c Conversation) Other(userID uuid.UUID) uuid.UUID {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

type Message struct {
	ID             uuid.UUID       `db:"id"`
	ConversationID uuid.UUID       `db:"conversation_id"`
	SenderID       uuid.UUID       `db:"sender_id"`
	Content        string          `db:"content"`
	Meta           json.RawMessage `db:"meta"` // optional notification payload
	CreatedAt      time.Time       `db:"created_at"`
}

// MessageRead is the per-user read cursor of a conversation; upsert keyed by
// (conversation_id, user_id), last-write-wins.
type MessageRead struct {
	ConversationID uuid.UUID `db:"conversation_id"`
	UserID         uuid.UUID `db:"user_id"`
	LastReadAt     time.Time `db:"last_read_at"`
}

type ThreadStatus string

const (
	ThreadOpen       ThreadStatus = "abierto"
	ThreadInProgress ThreadStatus = "en_proceso"
	ThreadClosed     ThreadStatus = "cerrado"
)

// MailboxThread is a staff-handled request thread with a monotonic lifecycle:
// abierto -> en_proceso -> cerrado. cerrado is terminal.
type MailboxThread struct {
	ID            uuid.UUID    `db:"id"`
	InstitutionID uuid.UUID    `db:"institution_id"`
	CreatedBy     uuid.UUID    `db:"created_by"`
	Subject       string       `db:"subject"`
	Status        ThreadStatus `db:"status"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

type MailboxMessage struct {
	ID        uuid.UUID `db:"id"`
	ThreadID  uuid.UUID `db:"thread_id"`
	SenderID  uuid.UUID `db:"sender_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}
