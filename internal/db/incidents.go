package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

const incidentCols = `id, institution_id, student_id, reporter_id, folio, type, severity, description, resolved, resolved_at, resolution_notes, incident_date, created_at`

// InsertIncident assigns the next folio DEC-YYYY-NNNN for the institution and
// year. The number comes from the highest existing suffix, so gaps left by
// deleted cases are never re-filled. Concurrent filers may still pick the
// same number; the unique constraint on (institution_id, folio) arbitrates,
// and on retry the winner's row has advanced the max.
func InsertIncident(ctx context.Context, dbh *sql.DB, in models.Incident) (*models.Incident, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	year := in.IncidentDate.Year()
	prefix := fmt.Sprintf("DEC-%d-", year)

	for attempt := 0; attempt < 5; attempt++ {
		var seq int
		err := dbh.QueryRowContext(ctx, `
SELECT COALESCE(MAX(SUBSTRING(folio FROM '([0-9]+)$')::int), 0) + 1 FROM incidents
WHERE institution_id = $1 AND folio LIKE $2`, in.InstitutionID, prefix+"%").Scan(&seq)
		if err != nil {
			return nil, err
		}
		in.Folio = fmt.Sprintf("%s%04d", prefix, seq)

		_, err = dbh.ExecContext(ctx, `
INSERT INTO incidents (id, institution_id, student_id, reporter_id, folio, type, severity, description, resolved, incident_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, now())`,
			in.ID, in.InstitutionID, in.StudentID, in.ReporterID, in.Folio, in.Type, in.Severity, in.Description, in.IncidentDate)
		if IsUniqueViolation(err) {
			continue // folio raced; pick the next number
		}
		if err != nil {
			return nil, err
		}
		return GetIncident(ctx, dbh, in.ID)
	}
	return nil, fmt.Errorf("folio assignment kept racing for %s", prefix)
}

func GetIncident(ctx context.Context, dbh *sql.DB, id uuid.UUID) (*models.Incident, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var in models.Incident
	err := dbh.QueryRowContext(ctx,
		`SELECT `+incidentCols+` FROM incidents WHERE id = $1`, id).
		Scan(&in.ID, &in.InstitutionID, &in.StudentID, &in.ReporterID, &in.Folio, &in.Type, &in.Severity, &in.Description, &in.Resolved, &in.ResolvedAt, &in.ResolutionNotes, &in.IncidentDate, &in.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func ListIncidents(ctx context.Context, dbh *sql.DB, institutionID uuid.UUID, onlyOpen bool) ([]models.Incident, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `SELECT ` + incidentCols + ` FROM incidents WHERE institution_id = $1`
	if onlyOpen {
		q += ` AND NOT resolved`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := dbh.QueryContext(ctx, q, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Incident
	for rows.Next() {
		var in models.Incident
		if err := rows.Scan(&in.ID, &in.InstitutionID, &in.StudentID, &in.ReporterID, &in.Folio, &in.Type, &in.Severity, &in.Description, &in.Resolved, &in.ResolvedAt, &in.ResolutionNotes, &in.IncidentDate, &in.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func ResolveIncident(ctx context.Context, dbh *sql.DB, id uuid.UUID, notes string) (*models.Incident, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := dbh.ExecContext(ctx, `
UPDATE incidents SET resolved = TRUE, resolved_at = now(), resolution_notes = $2
WHERE id = $1 AND NOT resolved`, id, notes)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// already resolved or missing; report current state
		return GetIncident(ctx, dbh, id)
	}
	return GetIncident(ctx, dbh, id)
}

func InsertDerivation(ctx context.Context, dbh *sql.DB, d models.CaseDerivation) (uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := dbh.ExecContext(ctx, `
INSERT INTO case_derivations (id, incident_id, from_user_id, to_role, reason, created_at)
VALUES ($1, $2, $3, $4, $5, now())`,
		d.ID, d.IncidentID, d.FromUserID, d.ToRole, d.Reason)
	if err != nil {
		return uuid.Nil, err
	}
	return d.ID, nil
}

func ListDerivations(ctx context.Context, dbh *sql.DB, incidentID uuid.UUID) ([]models.CaseDerivation, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT id, incident_id, from_user_id, to_role, reason, created_at
FROM case_derivations WHERE incident_id = $1 ORDER BY created_at`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CaseDerivation
	for rows.Next() {
		var d models.CaseDerivation
		if err := rows.Scan(&d.ID, &d.IncidentID, &d.FromUserID, &d.ToRole, &d.Reason, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteIncident removes a case (admin path, audited by the caller).
func DeleteIncident(ctx context.Context, dbh *sql.DB, id uuid.UUID) (*models.Incident, error) {
	before, err := GetIncident(ctx, dbh, id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	if _, err := dbh.ExecContext(ctx, `DELETE FROM incidents WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return before, nil
}
