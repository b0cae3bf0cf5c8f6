package models

import (
	"time"

	"github.com/google/uuid"
)

// PulseSession is a time-boxed institution-wide climate survey. At most one
// active session per institution (partial unique index at the storage layer).
type PulseSession struct {
	ID            uuid.UUID `db:"id"`
	InstitutionID uuid.UUID `db:"institution_id"`
	WeekStart     time.Time `db:"week_start"`
	WeekEnd       time.Time `db:"week_end"`
	Active        bool      `db:"active"`
	CreatedAt     time.Time `db:"created_at"`
}

// One submission per student per session (unique constraint).
type PulseStudentEntry struct {
	ID        uuid.UUID `db:"id"`
	SessionID uuid.UUID `db:"session_id"`
	StudentID uuid.UUID `db:"student_id"`
	Mood      int       `db:"mood"`      // 1..5
	Safety    int       `db:"safety"`    // 1..5
	Belonging int       `db:"belonging"` // 1..5
	CreatedAt time.Time `db:"created_at"`
}

// One submission per (teacher, course) per session.
type PulseTeacherEntry struct {
	ID        uuid.UUID `db:"id"`
	SessionID uuid.UUID `db:"session_id"`
	TeacherID uuid.UUID `db:"teacher_id"`
	CourseID  uuid.UUID `db:"course_id"`
	Climate   int       `db:"climate"` // 1..5
	Notes     *string   `db:"notes"`
	CreatedAt time.Time `db:"created_at"`
}
