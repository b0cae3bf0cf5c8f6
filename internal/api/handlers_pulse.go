package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/convivia/school-wellbeing-backend/internal/db"
)

type activatePulseRequest struct {
	WeekStart time.Time `json:"week_start" validate:"required"`
}

func (s *server) activatePulse(c echo.Context) error {
	var req activatePulseRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	session, err := s.opts.Pulse.Activate(c.Request().Context(), ident(c), req.WeekStart)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, session)
}

func (s *server) closePulse(c echo.Context) error {
	if err := s.opts.Pulse.Close(c.Request().Context(), ident(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *server) activePulse(c echo.Context) error {
	session, err := s.opts.Pulse.Active(c.Request().Context(), ident(c))
	if err != nil {
		return err
	}
	if session == nil {
		return c.JSON(http.StatusOK, echo.Map{"active": false})
	}
	return c.JSON(http.StatusOK, echo.Map{"active": true, "session": session})
}

type pulseStudentRequest struct {
	Mood      int `json:"mood" validate:"required,min=1,max=5"`
	Safety    int `json:"safety" validate:"required,min=1,max=5"`
	Belonging int `json:"belonging" validate:"required,min=1,max=5"`
}

func (s *server) submitPulseStudent(c echo.Context) error {
	var req pulseStudentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entryID, err := s.opts.Pulse.SubmitStudentEntry(c.Request().Context(), ident(c), req.Mood, req.Safety, req.Belonging)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": entryID})
}

type pulseTeacherRequest struct {
	CourseID uuid.UUID `json:"course_id" validate:"required"`
	Climate  int       `json:"climate" validate:"required,min=1,max=5"`
	Notes    *string   `json:"notes"`
}

func (s *server) submitPulseTeacher(c echo.Context) error {
	var req pulseTeacherRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entryID, err := s.opts.Pulse.SubmitTeacherEntry(c.Request().Context(), ident(c), req.CourseID, req.Climate, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": entryID})
}

func (s *server) pulseSummary(c echo.Context) error {
	sessionID, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	session, err := db.GetPulseSession(ctx, s.opts.DB, sessionID)
	if err != nil {
		return err
	}
	if session.InstitutionID != ident(c).InstitutionID {
		return db.ErrNotFound
	}

	mood, safety, belonging, n, err := db.PulseStudentAverages(ctx, s.opts.DB, sessionID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session":       session,
		"responses":     n,
		"avg_mood":      mood,
		"avg_safety":    safety,
		"avg_belonging": belonging,
	})
}
