package models

import (
	"time"

	"github.com/google/uuid"
)

type AlertType string

const (
	AlertNegativeStreak      AlertType = "registros_negativos"
	AlertTeacherDiscrepancy  AlertType = "discrepancia_docente"
	AlertRepeatedIncident    AlertType = "dec_repetido"
	AlertNoRecentActivity    AlertType = "sin_registro"
	AlertMentalHealthConcern AlertType = "mental_health_concern"
)

// Alert is a system-generated flag requiring staff follow-up. Created only by
// server-side rule evaluation or manual admin action. Resolution is terminal.
type Alert struct {
	ID            uuid.UUID  `db:"id"`
	InstitutionID uuid.UUID  `db:"institution_id"`
	StudentID     uuid.UUID  `db:"student_id"`
	Type          AlertType  `db:"type"`
	Description   string     `db:"description"`
	Resolved      bool       `db:"resolved"`
	ResolvedAt    *time.Time `db:"resolved_at"`
	ResolvedBy    *uuid.UUID `db:"resolved_by"`
	TriggeredBy   *uuid.UUID `db:"triggered_by"`
	CreatedAt     time.Time  `db:"created_at"`
}
