package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

// InsertEmotionalLog persists a check-in. The unique constraint on
// (student_id, type, log_date) closes the duplicate-daily-log race; a
// violation maps to ErrAlreadyLoggedToday.
func InsertEmotionalLog(ctx context.Context, dbh *sql.DB, l models.EmotionalLog) (uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	year, week := l.LogDate.ISOWeek()
	_, err := dbh.ExecContext(ctx, `
INSERT INTO emotional_logs (id, institution_id, student_id, emotion, intensity, stress_level, anxiety_level, reflection, type, week_number, year, log_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())`,
		l.ID, l.InstitutionID, l.StudentID, l.Emotion, l.Intensity, l.StressLevel, l.AnxietyLevel, l.Reflection, l.Type, week, year, l.LogDate)
	if IsUniqueViolation(err) {
		return uuid.Nil, ErrAlreadyLoggedToday
	}
	if err != nil {
		return uuid.Nil, err
	}
	return l.ID, nil
}

const emotionalLogCols = `id, institution_id, student_id, emotion, intensity, stress_level, anxiety_level, reflection, type, week_number, year, log_date, created_at`

func scanEmotionalLogs(rows *sql.Rows) ([]models.EmotionalLog, error) {
	defer rows.Close()
	var out []models.EmotionalLog
	for rows.Next() {
		var l models.EmotionalLog
		if err := rows.Scan(&l.ID, &l.InstitutionID, &l.StudentID, &l.Emotion, &l.Intensity, &l.StressLevel, &l.AnxietyLevel, &l.Reflection, &l.Type, &l.WeekNumber, &l.Year, &l.LogDate, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// RecentDailyLogs returns the student's most recent daily logs, newest first.
func RecentDailyLogs(ctx context.Context, dbh *sql.DB, studentID uuid.UUID, limit int) ([]models.EmotionalLog, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT `+emotionalLogCols+` FROM emotional_logs
WHERE student_id = $1 AND type = 'daily'
ORDER BY created_at DESC
LIMIT $2`, studentID, limit)
	if err != nil {
		return nil, err
	}
	return scanEmotionalLogs(rows)
}

// LatestDailyLog returns the newest daily log, or nil when the student has
// never checked in.
func LatestDailyLog(ctx context.Context, dbh *sql.DB, studentID uuid.UUID) (*models.EmotionalLog, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var l models.EmotionalLog
	err := dbh.QueryRowContext(ctx, `
SELECT `+emotionalLogCols+` FROM emotional_logs
WHERE student_id = $1 AND type = 'daily'
ORDER BY created_at DESC
LIMIT 1`, studentID).Scan(&l.ID, &l.InstitutionID, &l.StudentID, &l.Emotion, &l.Intensity, &l.StressLevel, &l.AnxietyLevel, &l.Reflection, &l.Type, &l.WeekNumber, &l.Year, &l.LogDate, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func ListEmotionalLogsByStudent(ctx context.Context, dbh *sql.DB, studentID uuid.UUID, limit int) ([]models.EmotionalLog, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT `+emotionalLogCols+` FROM emotional_logs
WHERE student_id = $1
ORDER BY created_at DESC
LIMIT $2`, studentID, limit)
	if err != nil {
		return nil, err
	}
	return scanEmotionalLogs(rows)
}

// DeleteEmotionalLog removes a log (admin path, audited by the caller) and
// returns the removed row for the before snapshot. Scoped to the institution
// so an admin cannot delete across tenants.
func DeleteEmotionalLog(ctx context.Context, dbh *sql.DB, id, institutionID uuid.UUID) (*models.EmotionalLog, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var l models.EmotionalLog
	err := dbh.QueryRowContext(ctx, `
DELETE FROM emotional_logs WHERE id = $1 AND institution_id = $2
RETURNING `+emotionalLogCols,
		id, institutionID).Scan(&l.ID, &l.InstitutionID, &l.StudentID, &l.Emotion, &l.Intensity, &l.StressLevel, &l.AnxietyLevel, &l.Reflection, &l.Type, &l.WeekNumber, &l.Year, &l.LogDate, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}
