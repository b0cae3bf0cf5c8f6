package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/convivia/school-wellbeing-backend/internal/models"
)

type incidentRequest struct {
	StudentID    uuid.UUID  `json:"student_id" validate:"required"`
	Type         string     `json:"type" validate:"required"`
	Severity     string     `json:"severity" validate:"required,oneof=moderada severa"`
	Description  string     `json:"description" validate:"required"`
	IncidentDate *time.Time `json:"incident_date"`
}

func (s *server) createIncident(c echo.Context) error {
	var req incidentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.checkSameInstitution(c, req.StudentID); err != nil {
		return err
	}

	when := time.Now()
	if req.IncidentDate != nil {
		when = *req.IncidentDate
	}
	created, err := s.opts.Incidents.File(c.Request().Context(), ident(c), models.Incident{
		StudentID:    req.StudentID,
		Type:         req.Type,
		Severity:     models.Severity(req.Severity),
		Description:  req.Description,
		IncidentDate: when,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *server) listIncidents(c echo.Context) error {
	onlyOpen := c.QueryParam("open") == "true"
	out, err := s.opts.Incidents.List(c.Request().Context(), ident(c), onlyOpen)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) getIncident(c echo.Context) error {
	incidentID, err := pathID(c)
	if err != nil {
		return err
	}
	in, err := s.opts.Incidents.Get(c.Request().Context(), ident(c), incidentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, in)
}

type resolveIncidentRequest struct {
	Notes string `json:"notes" validate:"required"`
}

func (s *server) resolveIncident(c echo.Context) error {
	incidentID, err := pathID(c)
	if err != nil {
		return err
	}
	var req resolveIncidentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := s.opts.Incidents.Resolve(c.Request().Context(), ident(c), incidentID, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, in)
}

type deriveRequest struct {
	ToRole string `json:"to_role" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

func (s *server) deriveIncident(c echo.Context) error {
	incidentID, err := pathID(c)
	if err != nil {
		return err
	}
	var req deriveRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	derivationID, err := s.opts.Incidents.Derive(c.Request().Context(), ident(c), incidentID, models.Role(req.ToRole), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": derivationID})
}

func (s *server) listDerivations(c echo.Context) error {
	incidentID, err := pathID(c)
	if err != nil {
		return err
	}
	out, err := s.opts.Incidents.Derivations(c.Request().Context(), ident(c), incidentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
