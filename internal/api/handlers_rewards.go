package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

type grantRewardRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	Points    int       `json:"points" validate:"required,min=1,max=1000"`
	Reason    string    `json:"reason" validate:"required"`
}

func (s *server) grantReward(c echo.Context) error {
	var req grantRewardRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.checkSameInstitution(c, req.StudentID); err != nil {
		return err
	}

	id := ident(c)
	grantID, err := db.InsertRewardPoints(c.Request().Context(), s.opts.DB, models.RewardPoint{
		InstitutionID: id.InstitutionID,
		StudentID:     req.StudentID,
		Points:        req.Points,
		Reason:        req.Reason,
		CreatedBy:     id.ProfileID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": grantID})
}

func (s *server) ownRewardTotal(c echo.Context) error {
	total, err := db.TotalPointsByStudent(c.Request().Context(), s.opts.DB, ident(c).ProfileID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total})
}

func (s *server) studentRewardTotal(c echo.Context) error {
	studentID, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.checkSameInstitution(c, studentID); err != nil {
		return err
	}
	total, err := db.TotalPointsByStudent(c.Request().Context(), s.opts.DB, studentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total})
}
