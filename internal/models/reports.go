package models

import "github.com/google/uuid"

// Raw rows backing the reporting aggregations. Dashboards re-query and
// re-aggregate on every load; there is no caching layer.

type EmotionCount struct {
	Emotion Emotion `db:"emotion"`
	Count   int     `db:"count"`
}

type CourseEnergyRow struct {
	CourseID    uuid.UUID   `db:"course_id"`
	CourseName  string      `db:"course_name"`
	EnergyLevel EnergyLevel `db:"energy_level"`
	Count       int         `db:"count"`
}

type RiskRow struct {
	StudentID       uuid.UUID `db:"student_id"`
	StudentName     string    `db:"student_name"`
	OpenAlerts      int       `db:"open_alerts"`
	NegativeLogs30d int       `db:"negative_logs_30d"`
	OpenIncidents   int       `db:"open_incidents"`
}
