package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

// EmotionCountsForMonth groups daily logs by emotion for one calendar month.
func EmotionCountsForMonth(ctx context.Context, dbh *sql.DB, institutionID uuid.UUID, year, month int) ([]models.EmotionCount, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT emotion, COUNT(*) FROM emotional_logs
WHERE institution_id = $1 AND type = 'daily'
  AND EXTRACT(YEAR FROM log_date) = $2
  AND EXTRACT(MONTH FROM log_date) = $3
GROUP BY emotion`, institutionID, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EmotionCount
	for rows.Next() {
		var c models.EmotionCount
		if err := rows.Scan(&c.Emotion, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// EnergyCountsByCourse groups recent teacher logs by course and energy level.
func EnergyCountsByCourse(ctx context.Context, dbh *sql.DB, institutionID uuid.UUID, days int) ([]models.CourseEnergyRow, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT t.course_id, c.name, t.energy_level, COUNT(*)
FROM teacher_logs t
JOIN courses c ON c.id = t.course_id
WHERE t.institution_id = $1
  AND t.log_date >= CURRENT_DATE - make_interval(days => $2)
GROUP BY t.course_id, c.name, t.energy_level
ORDER BY c.name`, institutionID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CourseEnergyRow
	for rows.Next() {
		var r models.CourseEnergyRow
		if err := rows.Scan(&r.CourseID, &r.CourseName, &r.EnergyLevel, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RiskRows lists students carrying open alerts, recent negative logs or open
// incidents; the risk list is derived from these raw counts.
func RiskRows(ctx context.Context, dbh *sql.DB, institutionID uuid.UUID) ([]models.RiskRow, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := dbh.QueryContext(ctx, `
SELECT p.id, p.name,
  (SELECT COUNT(*) FROM alerts a WHERE a.student_id = p.id AND NOT a.resolved),
  (SELECT COUNT(*) FROM emotional_logs e
     WHERE e.student_id = p.id AND e.type = 'daily'
       AND e.emotion IN ('mal', 'muy_mal')
       AND e.log_date >= CURRENT_DATE - 30),
  (SELECT COUNT(*) FROM incidents i WHERE i.student_id = p.id AND NOT i.resolved)
FROM profiles p
WHERE p.institution_id = $1 AND p.role = 'student' AND p.is_active
ORDER BY p.name`, institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RiskRow
	for rows.Next() {
		var r models.RiskRow
		if err := rows.Scan(&r.StudentID, &r.StudentName, &r.OpenAlerts, &r.NegativeLogs30d, &r.OpenIncidents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
