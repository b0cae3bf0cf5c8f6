package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

type createUserRequest struct {
	Name     string     `json:"name" validate:"required"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=8"`
	Role     string     `json:"role" validate:"required"`
	CourseID *uuid.UUID `json:"course_id"`
}

func (s *server) adminCreateUser(c echo.Context) error {
	var req createUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	id := ident(c)
	ctx := c.Request().Context()
	p := models.Profile{
		InstitutionID: id.InstitutionID,
		Name:          req.Name,
		Email:         strings.ToLower(req.Email),
		Role:          models.Role(req.Role),
		PasswordHash:  string(hash),
		CourseID:      req.CourseID,
		Active:        true,
	}
	userID, err := db.CreateProfile(ctx, s.opts.DB, p)
	if err != nil {
		return err
	}
	p.ID = userID

	s.opts.Audit.Record(ctx, id.ProfileID, "user.create", "profile", userID, nil, viewProfile(&p))
	return c.JSON(http.StatusCreated, echo.Map{"id": userID})
}

type updateUserRequest struct {
	Name     string     `json:"name" validate:"required"`
	Role     string     `json:"role" validate:"required"`
	CourseID *uuid.UUID `json:"course_id"`
}

func (s *server) adminUpdateUser(c echo.Context) error {
	userID, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.checkSameInstitution(c, userID); err != nil {
		return err
	}

	ctx := c.Request().Context()
	before, err := db.UpdateProfile(ctx, s.opts.DB, userID, req.Name, models.Role(req.Role), req.CourseID)
	if err != nil {
		return err
	}
	after, err := db.GetProfile(ctx, s.opts.DB, userID)
	if err != nil {
		return err
	}

	s.opts.Audit.Record(ctx, ident(c).ProfileID, "user.update", "profile", userID, viewProfile(before), viewProfile(after))
	return c.JSON(http.StatusOK, viewProfile(after))
}

func (s *server) adminDeactivateUser(c echo.Context) error {
	userID, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.checkSameInstitution(c, userID); err != nil {
		return err
	}

	ctx := c.Request().Context()
	before, err := db.DeactivateProfile(ctx, s.opts.DB, userID)
	if err != nil {
		return err
	}

	s.opts.Audit.Record(ctx, ident(c).ProfileID, "user.deactivate", "profile", userID, viewProfile(before), nil)
	return c.NoContent(http.StatusNoContent)
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

func (s *server) adminResetPassword(c echo.Context) error {
	userID, err := pathID(c)
	if err != nil {
		return err
	}
	var req resetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.checkSameInstitution(c, userID); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := db.SetProfilePassword(ctx, s.opts.DB, userID, string(hash)); err != nil {
		return err
	}

	s.opts.Audit.Record(ctx, ident(c).ProfileID, "user.reset_password", "profile", userID, nil, nil)
	return c.NoContent(http.StatusNoContent)
}

type createCourseRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *server) adminCreateCourse(c echo.Context) error {
	var req createCourseRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	id := ident(c)
	ctx := c.Request().Context()
	courseID, err := db.CreateCourse(ctx, s.opts.DB, models.Course{
		InstitutionID: id.InstitutionID,
		Name:          req.Name,
	})
	if err != nil {
		return err
	}

	s.opts.Audit.Record(ctx, id.ProfileID, "course.create", "course", courseID, nil, echo.Map{"name": req.Name})
	return c.JSON(http.StatusCreated, echo.Map{"id": courseID})
}

// adminDeleteEmotionalLog is the only path that removes a check-in; the
// deleted row goes into the audit log as the before snapshot.
func (s *server) adminDeleteEmotionalLog(c echo.Context) error {
	logID, err := pathID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	before, err := db.DeleteEmotionalLog(ctx, s.opts.DB, logID, ident(c).InstitutionID)
	if err != nil {
		return err
	}

	s.opts.Audit.Record(ctx, ident(c).ProfileID, "emotional_log.delete", "emotional_log", logID, before, nil)
	return c.NoContent(http.StatusNoContent)
}

func (s *server) adminDeleteIncident(c echo.Context) error {
	incidentID, err := pathID(c)
	if err != nil {
		return err
	}
	if _, err := s.opts.Incidents.Get(c.Request().Context(), ident(c), incidentID); err != nil {
		return err
	}

	ctx := c.Request().Context()
	before, err := db.DeleteIncident(ctx, s.opts.DB, incidentID)
	if err != nil {
		return err
	}

	s.opts.Audit.Record(ctx, ident(c).ProfileID, "incident.delete", "incident", incidentID, before, nil)
	return c.NoContent(http.StatusNoContent)
}
