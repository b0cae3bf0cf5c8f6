package audit

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/models"
	"github.com/convivia/school-wellbeing-backend/internal/observability"
)

// Recorder appends admin mutations to the audit log. Recording is
// best-effort: a failed audit write is logged and captured but never fails
// the mutation it describes.
type Recorder struct {
	dbh *sql.DB
	log *zap.SugaredLogger
}

func NewRecorder(dbh *sql.DB, log *zap.SugaredLogger) *Recorder {
	return &Recorder{dbh: dbh, log: log.With("component", "audit")}
}

// Record snapshots before/after as JSON. A nil snapshot stays NULL.
func (r *Recorder) Record(ctx context.Context, actorID uuid.UUID, action, entity string, entityID uuid.UUID, before, after any) {
	entry := models.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID.String(),
	}
	entry.Before = r.snapshot(action, before)
	entry.After = r.snapshot(action, after)

	if err := db.InsertAudit(ctx, r.dbh, entry); err != nil {
		r.log.Errorw("audit write failed", "action", action, "entity", entity, "err", err)
		observability.CaptureErr(err)
	}
}

func (r *Recorder) snapshot(action string, v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		r.log.Errorw("audit snapshot marshal failed", "action", action, "err", err)
		return nil
	}
	return raw
}
