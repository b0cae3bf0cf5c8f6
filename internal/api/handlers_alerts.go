package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/convivia/school-wellbeing-backend/internal/db"
)

func (s *server) listAlerts(c echo.Context) error {
	id := ident(c)
	onlyOpen := c.QueryParam("open") == "true"
	out, err := db.ListAlerts(c.Request().Context(), s.opts.DB, id.InstitutionID, onlyOpen)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) getAlert(c echo.Context) error {
	alertID, err := pathID(c)
	if err != nil {
		return err
	}
	a, err := db.GetAlert(c.Request().Context(), s.opts.DB, alertID)
	if err != nil {
		return err
	}
	if a.InstitutionID != ident(c).InstitutionID {
		return db.ErrNotFound
	}
	return c.JSON(http.StatusOK, a)
}

// resolveAlert is restricted to the resolver roles, not all staff.
func (s *server) resolveAlert(c echo.Context) error {
	id := ident(c)
	if !id.Role.CanResolveAlerts() {
		return echo.ErrForbidden
	}
	alertID, err := pathID(c)
	if err != nil {
		return err
	}

	a, err := db.GetAlert(c.Request().Context(), s.opts.DB, alertID)
	if err != nil {
		return err
	}
	if a.InstitutionID != id.InstitutionID {
		return db.ErrNotFound
	}

	resolved, err := db.ResolveAlert(c.Request().Context(), s.opts.DB, alertID, id.ProfileID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resolved)
}
