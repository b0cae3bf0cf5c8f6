package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/convivia/school-wellbeing-backend/internal/alerts"
	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

type emotionalLogRequest struct {
	Emotion      string  `json:"emotion" validate:"required"`
	Intensity    int     `json:"intensity" validate:"required,min=1,max=5"`
	StressLevel  *int    `json:"stress_level" validate:"omitempty,min=1,max=5"`
	AnxietyLevel *int    `json:"anxiety_level" validate:"omitempty,min=1,max=5"`
	Reflection   *string `json:"reflection"`
	Type         string  `json:"type" validate:"required,oneof=daily weekly"`
}

// blockedResponse is returned instead of persisting when the reflection
// matches the critical keyword tier.
type blockedResponse struct {
	Blocked  bool     `json:"blocked"`
	Message  string   `json:"message"`
	Contacts []string `json:"contacts"`
}

// createEmotionalLog persists a student check-in. Critical-tier reflections
// are intercepted before the write: nothing is stored and the client gets the
// emergency contact list.
func (s *server) createEmotionalLog(c echo.Context) error {
	var req emotionalLogRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if !models.ValidEmotion(req.Emotion) {
		return echo.NewHTTPError(http.StatusBadRequest, "emoción inválida")
	}

	id := ident(c)
	ctx := c.Request().Context()

	if req.Reflection != nil && s.opts.Evaluator.Classifier().Classify(*req.Reflection) == alerts.RiskCritical {
		return c.JSON(http.StatusOK, blockedResponse{
			Blocked:  true,
			Message:  "Tu mensaje indica que podrías necesitar ayuda ahora. Por favor contacta a un adulto de confianza o a estas líneas de apoyo.",
			Contacts: alerts.EmergencyContacts,
		})
	}

	l := models.EmotionalLog{
		InstitutionID: id.InstitutionID,
		StudentID:     id.ProfileID,
		Emotion:       models.Emotion(req.Emotion),
		Intensity:     req.Intensity,
		StressLevel:   req.StressLevel,
		AnxietyLevel:  req.AnxietyLevel,
		Reflection:    req.Reflection,
		Type:          models.LogType(req.Type),
		LogDate:       calendarDay(time.Now(), s.opts.Location),
	}
	logID, err := db.InsertEmotionalLog(ctx, s.opts.DB, l)
	if err != nil {
		return err
	}
	l.ID = logID

	s.opts.Evaluator.Dispatch(ctx, s.opts.Evaluator.AfterEmotionalLog(ctx, l))

	return c.JSON(http.StatusCreated, echo.Map{"id": logID})
}

func (s *server) listOwnEmotionalLogs(c echo.Context) error {
	id := ident(c)
	logs, err := db.ListEmotionalLogsByStudent(c.Request().Context(), s.opts.DB, id.ProfileID, queryLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logs)
}

func (s *server) listStudentEmotionalLogs(c echo.Context) error {
	studentID, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.checkSameInstitution(c, studentID); err != nil {
		return err
	}
	logs, err := db.ListEmotionalLogsByStudent(c.Request().Context(), s.opts.DB, studentID, queryLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logs)
}

type teacherLogRequest struct {
	CourseID    uuid.UUID `json:"course_id" validate:"required"`
	EnergyLevel string    `json:"energy_level" validate:"required"`
	Tags        []string  `json:"tags"`
	Notes       *string   `json:"notes"`
}

func (s *server) createTeacherLog(c echo.Context) error {
	var req teacherLogRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if !models.ValidEnergyLevel(req.EnergyLevel) {
		return echo.NewHTTPError(http.StatusBadRequest, "nivel de energía inválido")
	}

	id := ident(c)
	logID, err := db.InsertTeacherLog(c.Request().Context(), s.opts.DB, models.TeacherLog{
		InstitutionID: id.InstitutionID,
		TeacherID:     id.ProfileID,
		CourseID:      req.CourseID,
		EnergyLevel:   models.EnergyLevel(req.EnergyLevel),
		Tags:          req.Tags,
		Notes:         req.Notes,
		LogDate:       calendarDay(time.Now(), s.opts.Location),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": logID})
}

func (s *server) listTeacherLogs(c echo.Context) error {
	courseID, err := pathID(c)
	if err != nil {
		return err
	}
	logs, err := db.ListTeacherLogsByCourse(c.Request().Context(), s.opts.DB, courseID, queryLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logs)
}

type perceptionRequest struct {
	StudentID      uuid.UUID `json:"student_id" validate:"required"`
	WellbeingScore int       `json:"wellbeing_score" validate:"required,min=1,max=5"`
	Comment        *string   `json:"comment"`
}

func (s *server) createPerception(c echo.Context) error {
	var req perceptionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	id := ident(c)
	ctx := c.Request().Context()
	if err := s.checkSameInstitution(c, req.StudentID); err != nil {
		return err
	}

	p := models.TeacherStudentPerception{
		InstitutionID:  id.InstitutionID,
		TeacherID:      id.ProfileID,
		StudentID:      req.StudentID,
		WellbeingScore: req.WellbeingScore,
		Comment:        req.Comment,
	}
	pid, err := db.InsertPerception(ctx, s.opts.DB, p)
	if err != nil {
		return err
	}
	p.ID = pid

	s.opts.Evaluator.Dispatch(ctx, s.opts.Evaluator.AfterPerception(ctx, p))

	return c.JSON(http.StatusCreated, echo.Map{"id": pid})
}

// checkSameInstitution hides cross-institution students behind a 404.
func (s *server) checkSameInstitution(c echo.Context, profileID uuid.UUID) error {
	p, err := db.GetProfile(c.Request().Context(), s.opts.DB, profileID)
	if err != nil {
		return err
	}
	if p.InstitutionID != ident(c).InstitutionID {
		return db.ErrNotFound
	}
	return nil
}

// calendarDay maps an instant to its calendar date in the given timezone,
// normalized to midnight UTC for the DATE column. The per-day uniqueness
// constraints compare these values, so the day boundary is the school's
// local midnight, not UTC's.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func queryLimit(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || n <= 0 || n > 200 {
		return 50
	}
	return n
}
