package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

type startConversationRequest struct {
	OtherID uuid.UUID `json:"other_id" validate:"required"`
}

func (s *server) startConversation(c echo.Context) error {
	var req startConversationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.checkSameInstitution(c, req.OtherID); err != nil {
		return err
	}
	conv, err := s.opts.Messaging.StartConversation(c.Request().Context(), ident(c), req.OtherID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, conv)
}

func (s *server) listConversations(c echo.Context) error {
	out, err := s.opts.Messaging.ListConversations(c.Request().Context(), ident(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

func (s *server) sendMessage(c echo.Context) error {
	convID, err := pathID(c)
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	msg, err := s.opts.Messaging.SendDirectMessage(c.Request().Context(), ident(c), convID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

func (s *server) listMessages(c echo.Context) error {
	convID, err := pathID(c)
	if err != nil {
		return err
	}
	out, err := s.opts.Messaging.ListMessages(c.Request().Context(), ident(c), convID, queryLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) markRead(c echo.Context) error {
	convID, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.opts.Messaging.MarkRead(c.Request().Context(), ident(c), convID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// unreadCounts is the authoritative recompute from persisted rows; clients
// call it on connect and on interval, broadcasts only patch in between.
func (s *server) unreadCounts(c echo.Context) error {
	counts, err := db.UnreadCounts(c.Request().Context(), s.opts.DB, ident(c).ProfileID)
	if err != nil {
		return err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return c.JSON(http.StatusOK, echo.Map{"counts": counts, "total": total})
}

// Mailbox

type createThreadRequest struct {
	Subject string `json:"subject" validate:"required"`
}

func (s *server) createThread(c echo.Context) error {
	var req createThreadRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	t, err := s.opts.Messaging.CreateThread(c.Request().Context(), ident(c), req.Subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

// listThreads returns all institution threads for staff, own threads for
// everyone else.
func (s *server) listThreads(c echo.Context) error {
	id := ident(c)
	out, err := s.opts.Messaging.ListThreads(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !id.Role.IsStaff() {
		own := out[:0]
		for _, t := range out {
			if t.CreatedBy == id.ProfileID {
				own = append(own, t)
			}
		}
		out = own
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) listThreadMessages(c echo.Context) error {
	threadID, err := pathID(c)
	if err != nil {
		return err
	}
	out, err := s.opts.Messaging.ThreadMessages(c.Request().Context(), ident(c), threadID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *server) sendThreadMessage(c echo.Context) error {
	threadID, err := pathID(c)
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	msg, err := s.opts.Messaging.SendThreadMessage(c.Request().Context(), ident(c), threadID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=abierto en_proceso cerrado"`
}

func (s *server) transitionThread(c echo.Context) error {
	threadID, err := pathID(c)
	if err != nil {
		return err
	}
	var req transitionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	t, err := s.opts.Messaging.TransitionThread(c.Request().Context(), ident(c), threadID, models.ThreadStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}
