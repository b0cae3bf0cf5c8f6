package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

func InsertAlert(ctx context.Context, dbh *sql.DB, a models.Alert) (uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := dbh.ExecContext(ctx, `
INSERT INTO alerts (id, institution_id, student_id, type, description, resolved, triggered_by, created_at)
VALUES ($1, $2, $3, $4, $5, FALSE, $6, now())`,
		a.ID, a.InstitutionID, a.StudentID, a.Type, a.Description, a.TriggeredBy)
	if err != nil {
		return uuid.Nil, err
	}
	return a.ID, nil
}

const alertCols = `id, institution_id, student_id, type, description, resolved, resolved_at, resolved_by, triggered_by, created_at`

func GetAlert(ctx context.Context, dbh *sql.DB, id uuid.UUID) (*models.Alert, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var a models.Alert
	err := dbh.QueryRowContext(ctx,
		`SELECT `+alertCols+` FROM alerts WHERE id = $1`, id).
		Scan(&a.ID, &a.InstitutionID, &a.StudentID, &a.Type, &a.Description, &a.Resolved, &a.ResolvedAt, &a.ResolvedBy, &a.TriggeredBy, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func ListAlerts(ctx context.Context, dbh *sql.DB, institutionID uuid.UUID, onlyOpen bool) ([]models.Alert, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `SELECT ` + alertCols + ` FROM alerts WHERE institution_id = $1`
	if onlyOpen {
		q += ` AND NOT resolved`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := dbh.QueryContext(ctx, q, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.InstitutionID, &a.StudentID, &a.Type, &a.Description, &a.Resolved, &a.ResolvedAt, &a.ResolvedBy, &a.TriggeredBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func ListAlertsByStudent(ctx context.Context, dbh *sql.DB, studentID uuid.UUID, onlyOpen bool) ([]models.Alert, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `SELECT ` + alertCols + ` FROM alerts WHERE student_id = $1`
	if onlyOpen {
		q += ` AND NOT resolved`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := dbh.QueryContext(ctx, q, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.InstitutionID, &a.StudentID, &a.Type, &a.Description, &a.Resolved, &a.ResolvedAt, &a.ResolvedBy, &a.TriggeredBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ResolveAlert marks an alert resolved. Resolution is terminal and
// idempotent: resolving an already-resolved alert is a no-op, not an error.
func ResolveAlert(ctx context.Context, dbh *sql.DB, id, resolvedBy uuid.UUID) (*models.Alert, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := dbh.ExecContext(ctx, `
UPDATE alerts SET resolved = TRUE, resolved_at = now(), resolved_by = $2
WHERE id = $1 AND NOT resolved`, id, resolvedBy)
	if err != nil {
		return nil, err
	}
	return GetAlert(ctx, dbh, id)
}

// CountRecentUnresolvedIncidents counts a student's open DEC cases filed in
// the trailing window; feeds the dec_repetido rule.
func CountRecentUnresolvedIncidents(ctx context.Context, dbh *sql.DB, studentID uuid.UUID, days int) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var n int
	err := dbh.QueryRowContext(ctx, `
SELECT COUNT(*) FROM incidents
WHERE student_id = $1 AND NOT resolved
  AND created_at >= now() - make_interval(days => $2)`, studentID, days).Scan(&n)
	return n, err
}
