package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

func CreateProfile(ctx context.Context, dbh *sql.DB, p models.Profile) (uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := dbh.ExecContext(ctx, `
INSERT INTO profiles (id, institution_id, name, email, role, password_hash, course_id, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, now())`,
		p.ID, p.InstitutionID, p.Name, p.Email, p.Role, p.PasswordHash, p.CourseID)
	if IsUniqueViolation(err) {
		return uuid.Nil, ErrEmailTaken
	}
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

const profileCols = `id, institution_id, name, email, role, password_hash, course_id, is_active, created_at`

func scanProfile(row *sql.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.InstitutionID, &p.Name, &p.Email, &p.Role, &p.PasswordHash, &p.CourseID, &p.Active, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func GetProfile(ctx context.Context, dbh *sql.DB, id uuid.UUID) (*models.Profile, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return scanProfile(dbh.QueryRowContext(ctx,
		`SELECT `+profileCols+` FROM profiles WHERE id = $1`, id))
}

func GetProfileByEmail(ctx context.Context, dbh *sql.DB, email string) (*models.Profile, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return scanProfile(dbh.QueryRowContext(ctx,
		`SELECT `+profileCols+` FROM profiles WHERE email = $1 AND is_active`, email))
}

// UpdateProfile patches name/role/course. Returns the previous row for the
// audit snapshot.
func UpdateProfile(ctx context.Context, dbh *sql.DB, id uuid.UUID, name string, role models.Role, courseID *uuid.UUID) (*models.Profile, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	before, err := GetProfile(ctx, dbh, id)
	if err != nil {
		return nil, err
	}
	_, err = dbh.ExecContext(ctx,
		`UPDATE profiles SET name = $2, role = $3, course_id = $4 WHERE id = $1`,
		id, name, role, courseID)
	if err != nil {
		return nil, err
	}
	return before, nil
}

func SetProfilePassword(ctx context.Context, dbh *sql.DB, id uuid.UUID, hash string) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	res, err := dbh.ExecContext(ctx, `UPDATE profiles SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateProfile soft-deletes; rows referencing the profile stay intact.
func DeactivateProfile(ctx context.Context, dbh *sql.DB, id uuid.UUID) (*models.Profile, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	before, err := GetProfile(ctx, dbh, id)
	if err != nil {
		return nil, err
	}
	_, err = dbh.ExecContext(ctx, `UPDATE profiles SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return before, nil
}

func ListStudents(ctx context.Context, dbh *sql.DB, institutionID uuid.UUID) ([]models.Profile, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT `+profileCols+` FROM profiles
WHERE institution_id = $1 AND role = 'student' AND is_active
ORDER BY name`, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.InstitutionID, &p.Name, &p.Email, &p.Role, &p.PasswordHash, &p.CourseID, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AlertResolverIDs returns the active staff who may resolve alerts in an
// institution. Keep the role list in sync with Role.CanResolveAlerts.
func AlertResolverIDs(ctx context.Context, dbh *sql.DB, institutionID uuid.UUID) ([]uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT id FROM profiles
WHERE institution_id = $1 AND is_active
  AND role IN ('dupla', 'convivencia', 'director', 'admin')`, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// StudentsWithoutDailyLogSince returns active students whose last daily log is
// older than the cutoff (or who never logged), skipping those who already have
// an open sin_registro alert. Used by the inactivity sweep.
func StudentsWithoutDailyLogSince(ctx context.Context, dbh *sql.DB, institutionID uuid.UUID, cutoff time.Time) ([]models.Profile, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT `+profileCols+` FROM profiles p
WHERE p.institution_id = $1 AND p.role = 'student' AND p.is_active
  AND NOT EXISTS (
    SELECT 1 FROM emotional_logs e
    WHERE e.student_id = p.id AND e.type = 'daily' AND e.created_at >= $2
  )
  AND NOT EXISTS (
    SELECT 1 FROM alerts a
    WHERE a.student_id = p.id AND a.type = 'sin_registro' AND NOT a.resolved
  )`, institutionID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.InstitutionID, &p.Name, &p.Email, &p.Role, &p.PasswordHash, &p.CourseID, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func ListInstitutionIDs(ctx context.Context, dbh *sql.DB) ([]uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `SELECT DISTINCT institution_id FROM profiles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func CreateCourse(ctx context.Context, dbh *sql.DB, c models.Course) (uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := dbh.ExecContext(ctx, `
INSERT INTO courses (id, institution_id, name, created_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (institution_id, name) DO NOTHING`, c.ID, c.InstitutionID, c.Name)
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	err = dbh.QueryRowContext(ctx,
		`SELECT id FROM courses WHERE institution_id = $1 AND name = $2`,
		c.InstitutionID, c.Name).Scan(&id)
	return id, err
}
