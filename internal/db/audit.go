package db

import (
	"context"
	"database/sql"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

func InsertAudit(ctx context.Context, dbh *sql.DB, a models.AuditLog) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := dbh.ExecContext(ctx, `
INSERT INTO audit_log (actor_id, action, entity, entity_id, before, after, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())`,
		a.ActorID, a.Action, a.Entity, a.EntityID, nullableJSON(a.Before), nullableJSON(a.After))
	return err
}
