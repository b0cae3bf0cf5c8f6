package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

func InsertPerception(ctx context.Context, dbh *sql.DB, p models.TeacherStudentPerception) (uuid.UUID, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := dbh.ExecContext(ctx, `
INSERT INTO perceptions (id, institution_id, teacher_id, student_id, wellbeing_score, comment, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())`,
		p.ID, p.InstitutionID, p.TeacherID, p.StudentID, p.WellbeingScore, p.Comment)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}
