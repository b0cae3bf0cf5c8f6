package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only record of admin mutations with before/after
// snapshots. Writes are best-effort and never fail the audited action.
type AuditLog struct {
	ID        int64           `db:"id"`
	ActorID   uuid.UUID       `db:"actor_id"`
	Action    string          `db:"action"`
	Entity    string          `db:"entity"`
	EntityID  string          `db:"entity_id"`
	Before    json.RawMessage `db:"before"`
	After     json.RawMessage `db:"after"`
	CreatedAt time.Time       `db:"created_at"`
}

// RewardPoint is a points grant in the rewards program.
type RewardPoint struct {
	ID            uuid.UUID `db:"id"`
	InstitutionID uuid.UUID `db:"institution_id"`
	StudentID     uuid.UUID `db:"student_id"`
	Points        int       `db:"points"`
	Reason        string    `db:"reason"`
	CreatedBy     uuid.UUID `db:"created_by"`
	CreatedAt     time.Time `db:"created_at"`
}
