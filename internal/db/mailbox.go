package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

func CreateThread(ctx context.Context, dbh *sql.DB, t models.MailboxThread) (*models.MailboxThread, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := dbh.ExecContext(ctx, `
INSERT INTO mailbox_threads (id, institution_id, created_by, subject, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'abierto', now(), now())`,
		t.ID, t.InstitutionID, t.CreatedBy, t.Subject)
	if err != nil {
		return nil, err
	}
	return GetThread(ctx, dbh, t.ID)
}

func GetThread(ctx context.Context, dbh *sql.DB, id uuid.UUID) (*models.MailboxThread, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var t models.MailboxThread
	err := dbh.QueryRowContext(ctx, `
SELECT id, institution_id, created_by, subject, status, created_at, updated_at
FROM mailbox_threads WHERE id = $1`, id).
		Scan(&t.ID, &t.InstitutionID, &t.CreatedBy, &t.Subject, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func ListThreads(ctx context.Context, dbh *sql.DB, institutionID uuid.UUID) ([]models.MailboxThread, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT id, institution_id, created_by, subject, status, created_at, updated_at
FROM mailbox_threads
WHERE institution_id = $1
ORDER BY updated_at DESC`, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MailboxThread
	for rows.Next() {
		var t models.MailboxThread
		if err := rows.Scan(&t.ID, &t.InstitutionID, &t.CreatedBy, &t.Subject, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TransitionThread performs a conditional status update: the row only moves
// when it is still in the expected source state, so racing staff members get
// a clean zero-rows result instead of silently overwriting each other.
func TransitionThread(ctx context.Context, dbh *sql.DB, id uuid.UUID, from, to models.ThreadStatus) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := dbh.ExecContext(ctx, `
UPDATE mailbox_threads SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// InsertThreadMessage appends to a thread unless it is closed. The status
// guard lives in the statement itself so a direct write cannot slip past a
// concurrent close.
func InsertThreadMessage(ctx context.Context, dbh *sql.DB, m models.MailboxMessage) (*models.MailboxMessage, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	err := dbh.QueryRowContext(ctx, `
INSERT INTO mailbox_messages (id, thread_id, sender_id, content, created_at)
SELECT $1, $2, $3, $4, now()
WHERE EXISTS (
    SELECT 1 FROM mailbox_threads WHERE id = $2 AND status <> 'cerrado'
)
RETURNING created_at`,
		m.ID, m.ThreadID, m.SenderID, m.Content).Scan(&m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// thread missing or closed; disambiguate for the caller
		if _, getErr := GetThread(ctx, dbh, m.ThreadID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrThreadClosed
	}
	if err != nil {
		return nil, err
	}
	_, _ = dbh.ExecContext(ctx, `UPDATE mailbox_threads SET updated_at = now() WHERE id = $1`, m.ThreadID)
	return &m, nil
}

func ListThreadMessages(ctx context.Context, dbh *sql.DB, threadID uuid.UUID) ([]models.MailboxMessage, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT id, thread_id, sender_id, content, created_at
FROM mailbox_messages
WHERE thread_id = $1
ORDER BY created_at`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.MailboxMessage
	for rows.Next() {
		var m models.MailboxMessage
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
