package db

import (
	"bytes"
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

// orderPair returns the two ids ordered so the unordered pair maps to one row.
func orderPair(x, y uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(x[:], y[:]) < 0 {
		return x, y
	}
	return y, x
}

// GetOrCreateConversation returns the single conversation for the unordered
// user pair, creating it on first contact. ON CONFLICT DO NOTHING plus a
// re-select keeps concurrent first messages from creating two rows.
func GetOrCreateConversation(ctx context.Context, dbh *sql.DB, x, y uuid.UUID) (*models.Conversation, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	a, b := orderPair(x, y)
	_, err := dbh.ExecContext(ctx, `
INSERT INTO conversations (id, user_a, user_b, created_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (user_a, user_b) DO NOTHING`, uuid.New(), a, b)
	if err != nil {
		return nil, err
	}

	var c models.Conversation
	err = dbh.QueryRowContext(ctx, `
SELECT id, user_a, user_b, created_at FROM conversations
WHERE user_a = $1 AND user_b = $2`, a, b).
		Scan(&c.ID, &c.UserA, &c.UserB, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func GetConversation(ctx context.Context, dbh *sql.DB, id uuid.UUID) (*models.Conversation, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var c models.Conversation
	err := dbh.QueryRowContext(ctx, `
SELECT id, user_a, user_b, created_at FROM conversations WHERE id = $1`, id).
		Scan(&c.ID, &c.UserA, &c.UserB, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func ListConversationsByUser(ctx context.Context, dbh *sql.DB, userID uuid.UUID) ([]models.Conversation, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT id, user_a, user_b, created_at FROM conversations
WHERE user_a = $1 OR user_b = $1
ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Conversation
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.UserA, &c.UserB, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
