package db

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

// InsertTeacherLog persists a classroom climate record. Unique per
// (teacher, course, log_date); a violation maps to ErrAlreadyLoggedToday.
func InsertTeacherLog(ctx context.Context, dbh *sql.DB, l models.TeacherLog) (uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Tags == nil {
		l.Tags = []string{}
	}
	tags, err := json.Marshal(l.Tags)
	if err != nil {
		return uuid.Nil, err
	}
	_, err = dbh.ExecContext(ctx, `
INSERT INTO teacher_logs (id, institution_id, teacher_id, course_id, energy_level, tags, notes, log_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
		l.ID, l.InstitutionID, l.TeacherID, l.CourseID, l.EnergyLevel, tags, l.Notes, l.LogDate)
	if IsUniqueViolation(err) {
		return uuid.Nil, ErrAlreadyLoggedToday
	}
	if err != nil {
		return uuid.Nil, err
	}
	return l.ID, nil
}

func ListTeacherLogsByCourse(ctx context.Context, dbh *sql.DB, courseID uuid.UUID, limit int) ([]models.TeacherLog, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT id, institution_id, teacher_id, course_id, energy_level, tags, notes, log_date, created_at
FROM teacher_logs
WHERE course_id = $1
ORDER BY created_at DESC
LIMIT $2`, courseID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TeacherLog
	for rows.Next() {
		var l models.TeacherLog
		var tags []byte
		if err := rows.Scan(&l.ID, &l.InstitutionID, &l.TeacherID, &l.CourseID, &l.EnergyLevel, &tags, &l.Notes, &l.LogDate, &l.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(tags, &l.Tags); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
