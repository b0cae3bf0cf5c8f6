package models

import (
	"time"

	"github.com/google/uuid"
)

type Emotion string

const (
	EmotionMuyMal  Emotion = "muy_mal"
	EmotionMal     Emotion = "mal"
	EmotionNeutral Emotion = "neutral"
	EmotionBien    Emotion = "bien"
	EmotionMuyBien Emotion = "muy_bien"
)

func (e Emotion) IsNegative() bool { return e == EmotionMal || e == EmotionMuyMal }
func (e Emotion) IsPositive() bool { return e == EmotionBien || e == EmotionMuyBien }

func ValidEmotion(s string) bool {
	switch Emotion(s) {
	case EmotionMuyMal, EmotionMal, EmotionNeutral, EmotionBien, EmotionMuyBien:
		return true
	}
	return false
}

type LogType string

const (
	LogTypeDaily  LogType = "daily"
	LogTypeWeekly LogType = "weekly"
)

// EmotionalLog is a student's self-reported check-in. Immutable once created
// except by audited admin edits. At most one daily log per student per
// calendar day, enforced by a unique constraint on (student_id, type, log_date).
type EmotionalLog struct {
	ID            uuid.UUID `db:"id"`
	InstitutionID uuid.UUID `db:"institution_id"`
	StudentID     uuid.UUID `db:"student_id"`
	Emotion       Emotion   `db:"emotion"`
	Intensity     int       `db:"intensity"` // 1..5
	StressLevel   *int      `db:"stress_level"`
	AnxietyLevel  *int      `db:"anxiety_level"`
	Reflection    *string   `db:"reflection"`
	Type          LogType   `db:"type"`
	WeekNumber    int       `db:"week_number"`
	Year          int       `db:"year"`
	LogDate       time.Time `db:"log_date"`
	CreatedAt     time.Time `db:"created_at"`
}

type EnergyLevel string

const (
	EnergyExplosiva EnergyLevel = "explosiva"
	EnergyApatica   EnergyLevel = "apatica"
	EnergyInquieta  EnergyLevel = "inquieta"
	EnergyRegulada  EnergyLevel = "regulada"
)

func ValidEnergyLevel(s string) bool {
	switch EnergyLevel(s) {
	case EnergyExplosiva, EnergyApatica, EnergyInquieta, EnergyRegulada:
		return true
	}
	return false
}

// TeacherLog is a teacher's classroom climate record. One per teacher per
// course per day (unique constraint).
type TeacherLog struct {
	ID            uuid.UUID   `db:"id"`
	InstitutionID uuid.UUID   `db:"institution_id"`
	TeacherID     uuid.UUID   `db:"teacher_id"`
	CourseID      uuid.UUID   `db:"course_id"`
	EnergyLevel   EnergyLevel `db:"energy_level"`
	Tags          []string    `db:"tags"`
	Notes         *string     `db:"notes"`
	LogDate       time.Time   `db:"log_date"`
	CreatedAt     time.Time   `db:"created_at"`
}

// TeacherStudentPerception is a teacher's read on an individual student,
// compared against the student's own latest check-in by the discrepancy rule.
type TeacherStudentPerception struct {
	ID             uuid.UUID `db:"id"`
	InstitutionID  uuid.UUID `db:"institution_id"`
	TeacherID      uuid.UUID `db:"teacher_id"`
	StudentID      uuid.UUID `db:"student_id"`
	WellbeingScore int       `db:"wellbeing_score"` // 1..5
	Comment        *string   `db:"comment"`
	CreatedAt      time.Time `db:"created_at"`
}
