package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/incidents"
	"github.com/convivia/school-wellbeing-backend/internal/messaging"
	"github.com/convivia/school-wellbeing-backend/internal/observability"
	"github.com/convivia/school-wellbeing-backend/internal/pulse"
)

type errorResponse struct {
	Error string `json:"error"`
}

// errorHandler maps domain sentinels to HTTP statuses in one place so
// handlers can return service errors unwrapped.
func (s *server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		_ = c.JSON(he.Code, errorResponse{Error: msg})
		return
	}

	status, msg := mapDomainErr(err)
	if status == http.StatusInternalServerError {
		s.log.Errorw("unhandled error", "path", c.Path(), "err", err)
		observability.CaptureErr(err)
		msg = "internal error"
	}
	_ = c.JSON(status, errorResponse{Error: msg})
}

func mapDomainErr(err error) (int, string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, "no encontrado"
	case errors.Is(err, db.ErrAlreadyLoggedToday):
		return http.StatusConflict, "ya existe un registro para hoy"
	case errors.Is(err, db.ErrEmailTaken):
		return http.StatusConflict, "el correo ya está registrado"
	case errors.Is(err, db.ErrSessionActive):
		return http.StatusConflict, "ya hay una sesión de pulso activa"
	case errors.Is(err, db.ErrAlreadySubmitted):
		return http.StatusConflict, "ya enviaste tu respuesta para esta sesión"
	case errors.Is(err, db.ErrThreadClosed):
		return http.StatusConflict, "el hilo está cerrado"
	case errors.Is(err, messaging.ErrInvalidTransition):
		return http.StatusConflict, "transición de estado inválida"
	case errors.Is(err, messaging.ErrEmptyContent),
		errors.Is(err, incidents.ErrEmptyReason):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, messaging.ErrNotParticipant),
		errors.Is(err, messaging.ErrStaffOnly),
		errors.Is(err, incidents.ErrStaffOnly),
		errors.Is(err, pulse.ErrStaffOnly):
		return http.StatusForbidden, "no autorizado"
	case errors.Is(err, pulse.ErrNoActiveSession):
		return http.StatusNotFound, "no hay sesión de pulso activa"
	}
	return http.StatusInternalServerError, ""
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cuerpo de la solicitud inválido")
	}
	return c.Validate(v)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "id inválido")
	}
	return id, nil
}
