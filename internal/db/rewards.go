package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

func InsertRewardPoints(ctx context.Context, dbh *sql.DB, r models.RewardPoint) (uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	_, err := dbh.ExecContext(ctx, `
INSERT INTO reward_points (id, institution_id, student_id, points, reason, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())`,
		r.ID, r.InstitutionID, r.StudentID, r.Points, r.Reason, r.CreatedBy)
	if err != nil {
		return uuid.Nil, err
	}
	return r.ID, nil
}

func TotalPointsByStudent(ctx context.Context, dbh *sql.DB, studentID uuid.UUID) (int, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var total int
	err := dbh.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(points), 0) FROM reward_points WHERE student_id = $1`, studentID).Scan(&total)
	return total, err
}
