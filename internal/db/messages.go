package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

func InsertMessage(ctx context.Context, dbh *sql.DB, m models.Message) (*models.Message, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err := dbh.QueryRowContext(ctx, `
INSERT INTO messages (id, conversation_id, sender_id, content, meta, created_at)
VALUES ($1, $2, $3, $4, $5, now())
RETURNING created_at`,
		m.ID, m.ConversationID, m.SenderID, m.Content, nullableJSON(m.Meta)).Scan(&m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func ListMessages(ctx context.Context, dbh *sql.DB, conversationID uuid.UUID, limit int) ([]models.Message, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT id, conversation_id, sender_id, content, meta, created_at FROM messages
WHERE conversation_id = $1
ORDER BY created_at DESC
LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		var meta sql.Null[[]byte]
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &meta, &m.CreatedAt); err != nil {
			return nil, err
		}
		if meta.Valid {
			m.Meta = meta.V
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertMessageRead moves the read cursor forward; keyed by
// (conversation_id, user_id), last write wins.
func UpsertMessageRead(ctx context.Context, dbh *sql.DB, conversationID, userID uuid.UUID, at time.Time) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := dbh.ExecContext(ctx, `
INSERT INTO message_reads (conversation_id, user_id, last_read_at)
VALUES ($1, $2, $3)
ON CONFLICT (conversation_id, user_id) DO UPDATE SET last_read_at = EXCLUDED.last_read_at`,
		conversationID, userID, at)
	return err
}

// UnreadCounts recomputes, in one grouped query, the authoritative unread
// count for every conversation involving the user: messages from the peer
// newer than the user's read cursor (epoch when no cursor exists).
func UnreadCounts(ctx context.Context, dbh *sql.DB, userID uuid.UUID) (map[uuid.UUID]int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT c.id, COUNT(m.id)
FROM conversations c
LEFT JOIN message_reads r ON r.conversation_id = c.id AND r.user_id = $1
LEFT JOIN messages m ON m.conversation_id = c.id
    AND m.sender_id <> $1
    AND m.created_at > COALESCE(r.last_read_at, 'epoch'::timestamptz)
WHERE c.user_a = $1 OR c.user_b = $1
GROUP BY c.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}
