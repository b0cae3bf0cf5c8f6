package models

import (
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityModerada Severity = "moderada"
	SeveritySevera   Severity = "severa"
)

func ValidSeverity(s string) bool {
	return Severity(s) == SeverityModerada || Severity(s) == SeveritySevera
}

// Incident is a DEC case record (behavioral/emotional dysregulation), filed
// by staff and optionally derived to another role before resolution.
type Incident struct {
	ID              uuid.UUID  `db:"id"`
	InstitutionID   uuid.UUID  `db:"institution_id"`
	StudentID       uuid.UUID  `db:"student_id"`
	ReporterID      uuid.UUID  `db:"reporter_id"`
	Folio           string     `db:"folio"`
	Type            string     `db:"type"`
	Severity        Severity   `db:"severity"`
	Description     string     `db:"description"`
	Resolved        bool       `db:"resolved"`
	ResolvedAt      *time.Time `db:"resolved_at"`
	ResolutionNotes *string    `db:"resolution_notes"`
	IncidentDate    time.Time  `db:"incident_date"`
	CreatedAt       time.Time  `db:"created_at"`
}

type CaseDerivation struct {
	ID         uuid.UUID `db:"id"`
	IncidentID uuid.UUID `db:"incident_id"`
	FromUserID uuid.UUID `db:"from_user_id"`
	ToRole     Role      `db:"to_role"`
	Reason     string    `db:"reason"`
	CreatedAt  time.Time `db:"created_at"`
}
