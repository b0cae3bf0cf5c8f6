package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/notify"
)

const (
	resyncInterval    = time.Minute
	heartbeatInterval = 25 * time.Second
)

// unreadStore adapts the db package to the tracker interface.
type unreadStore struct{ dbh *sql.DB }

func (s unreadStore) UnreadCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	return db.UnreadCounts(ctx, s.dbh, userID)
}

func (s unreadStore) UpsertMessageRead(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error {
	return db.UpsertMessageRead(ctx, s.dbh, conversationID, userID, at)
}

// stream is the SSE endpoint: one subscription per session, events routed by
// user id. The client receives an authoritative unread snapshot on connect
// and on interval; pushed events patch the counters in between.
func (s *server) stream(c echo.Context) error {
	id := ident(c)
	ctx := c.Request().Context()

	client := s.opts.Hub.Subscribe(id.ProfileID)
	defer s.opts.Hub.Unsubscribe(client)

	tracker := notify.NewUnreadTracker(unreadStore{dbh: s.opts.DB}, id.ProfileID)
	if err := tracker.Resync(ctx); err != nil {
		return err
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeSSE(w, "unread", unreadPayload(tracker)); err != nil {
		return nil
	}

	resync := time.NewTicker(resyncInterval)
	defer resync.Stop()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-client.Done():
			return nil
		case ev := <-client.Outbound:
			tracker.Apply(ev)
			if err := writeSSE(w, string(ev.Kind), ev); err != nil {
				return nil
			}
			if ev.Kind == notify.EventNewMessage {
				if err := writeSSE(w, "unread", unreadPayload(tracker)); err != nil {
					return nil
				}
			}
		case <-resync.C:
			if err := tracker.Resync(ctx); err != nil {
				s.log.Warnw("unread resync failed", "user", id.ProfileID, "err", err)
				continue
			}
			if err := writeSSE(w, "unread", unreadPayload(tracker)); err != nil {
				return nil
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

type unreadView struct {
	Counts map[uuid.UUID]int `json:"counts"`
	Total  int               `json:"total"`
}

func unreadPayload(t *notify.UnreadTracker) unreadView {
	return unreadView{Counts: t.Counts(), Total: t.TotalUnread()}
}

func writeSSE(w *echo.Response, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
