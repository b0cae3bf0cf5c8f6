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

// ActivatePulseSession opens a survey window. The partial unique index on
// (institution_id) WHERE active is the single source of truth for the
// one-active-session invariant; a violation maps to ErrSessionActive and
// leaves no row behind.
func ActivatePulseSession(ctx context.Context, dbh *sql.DB, s models.PulseSession) (*models.PulseSession, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := dbh.ExecContext(ctx, `
INSERT INTO pulse_sessions (id, institution_id, week_start, week_end, active, created_at)
VALUES ($1, $2, $3, $4, TRUE, now())`,
		s.ID, s.InstitutionID, s.WeekStart, s.WeekEnd)
	if IsUniqueViolation(err) {
		return nil, ErrSessionActive
	}
	if err != nil {
		return nil, err
	}
	return GetPulseSession(ctx, dbh, s.ID)
}

func GetPulseSession(ctx context.Context, dbh *sql.DB, id uuid.UUID) (*models.PulseSession, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var s models.PulseSession
	err := dbh.QueryRowContext(ctx, `
SELECT id, institution_id, week_start, week_end, active, created_at
FROM pulse_sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.InstitutionID, &s.WeekStart, &s.WeekEnd, &s.Active, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ActivePulseSession returns the institution's open session, nil when none.
func ActivePulseSession(ctx context.Context, dbh *sql.DB, institutionID uuid.UUID) (*models.PulseSession, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var s models.PulseSession
	err := dbh.QueryRowContext(ctx, `
SELECT id, institution_id, week_start, week_end, active, created_at
FROM pulse_sessions WHERE institution_id = $1 AND active`, institutionID).
		Scan(&s.ID, &s.InstitutionID, &s.WeekStart, &s.WeekEnd, &s.Active, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func ClosePulseSession(ctx context.Context, dbh *sql.DB, id uuid.UUID) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := dbh.ExecContext(ctx,
		`UPDATE pulse_sessions SET active = FALSE WHERE id = $1 AND active`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CloseExpiredPulseSessions closes every active session whose window ended
// before the given date. Returns how many were closed; used by the weekly sweep.
func CloseExpiredPulseSessions(ctx context.Context, dbh *sql.DB, before time.Time) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := dbh.ExecContext(ctx,
		`UPDATE pulse_sessions SET active = FALSE WHERE active AND week_end < $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertPulseStudentEntry enforces one submission per student per session via
// the unique constraint; a violation maps to ErrAlreadySubmitted.
func InsertPulseStudentEntry(ctx context.Context, dbh *sql.DB, e models.PulseStudentEntry) (uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := dbh.ExecContext(ctx, `
INSERT INTO pulse_student_entries (id, session_id, student_id, mood, safety, belonging, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())`,
		e.ID, e.SessionID, e.StudentID, e.Mood, e.Safety, e.Belonging)
	if IsUniqueViolation(err) {
		return uuid.Nil, ErrAlreadySubmitted
	}
	if err != nil {
		return uuid.Nil, err
	}
	return e.ID, nil
}

func InsertPulseTeacherEntry(ctx context.Context, dbh *sql.DB, e models.PulseTeacherEntry) (uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := dbh.ExecContext(ctx, `
INSERT INTO pulse_teacher_entries (id, session_id, teacher_id, course_id, climate, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())`,
		e.ID, e.SessionID, e.TeacherID, e.CourseID, e.Climate, e.Notes)
	if IsUniqueViolation(err) {
		return uuid.Nil, ErrAlreadySubmitted
	}
	if err != nil {
		return uuid.Nil, err
	}
	return e.ID, nil
}

// PulseStudentAverages returns per-question means for a session.
func PulseStudentAverages(ctx context.Context, dbh *sql.DB, sessionID uuid.UUID) (mood, safety, belonging float64, n int, err error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	err = dbh.QueryRowContext(ctx, `
SELECT COALESCE(AVG(mood), 0), COALESCE(AVG(safety), 0), COALESCE(AVG(belonging), 0), COUNT(*)
FROM pulse_student_entries WHERE session_id = $1`, sessionID).
		Scan(&mood, &safety, &belonging, &n)
	return
}
