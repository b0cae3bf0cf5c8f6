package incidents

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivia/school-wellbeing-backend/internal/alerts"
	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

var (
	ErrStaffOnly   = errors.New("staff role required")
	ErrEmptyReason = errors.New("derivation reason is required")
)

// Service manages DEC case records: filing, derivation to another role, and
// resolution.
type Service struct {
	dbh       *sql.DB
	evaluator *alerts.Evaluator
	log       *zap.SugaredLogger
}

func NewService(dbh *sql.DB, evaluator *alerts.Evaluator, log *zap.SugaredLogger) *Service {
	return &Service{dbh: dbh, evaluator: evaluator, log: log.With("service", "incidents")}
}

// File creates the case and then evaluates the dec_repetido rule as a
// best-effort side effect of the committed write.
func (s *Service) File(ctx context.Context, ident ctxutil.Identity, in models.Incident) (*models.Incident, error) {
	if !ident.Role.IsStaff() {
		return nil, ErrStaffOnly
	}
	in.InstitutionID = ident.InstitutionID
	in.ReporterID = ident.ProfileID

	created, err := db.InsertIncident(ctx, s.dbh, in)
	if err != nil {
		return nil, err
	}
	s.evaluator.Dispatch(ctx, s.evaluator.AfterIncident(ctx, *created))
	return created, nil
}

func (s *Service) Get(ctx context.Context, ident ctxutil.Identity, id uuid.UUID) (*models.Incident, error) {
	in, err := db.GetIncident(ctx, s.dbh, id)
	if err != nil {
		return nil, err
	}
	if in.InstitutionID != ident.InstitutionID {
		return nil, db.ErrNotFound
	}
	return in, nil
}

func (s *Service) List(ctx context.Context, ident ctxutil.Identity, onlyOpen bool) ([]models.Incident, error) {
	if !ident.Role.IsStaff() {
		return nil, ErrStaffOnly
	}
	return db.ListIncidents(ctx, s.dbh, ident.InstitutionID, onlyOpen)
}

// Derive escalates a case to another role.
func (s *Service) Derive(ctx context.Context, ident ctxutil.Identity, incidentID uuid.UUID, toRole models.Role, reason string) (uuid.UUID, error) {
	if !ident.Role.IsStaff() {
		return uuid.Nil, ErrStaffOnly
	}
	if strings.TrimSpace(reason) == "" {
		return uuid.Nil, ErrEmptyReason
	}
	if _, err := s.Get(ctx, ident, incidentID); err != nil {
		return uuid.Nil, err
	}
	return db.InsertDerivation(ctx, s.dbh, models.CaseDerivation{
		IncidentID: incidentID,
		FromUserID: ident.ProfileID,
		ToRole:     toRole,
		Reason:     reason,
	})
}

func (s *Service) Derivations(ctx context.Context, ident ctxutil.Identity, incidentID uuid.UUID) ([]models.CaseDerivation, error) {
	if _, err := s.Get(ctx, ident, incidentID); err != nil {
		return nil, err
	}
	return db.ListDerivations(ctx, s.dbh, incidentID)
}

func (s *Service) Resolve(ctx context.Context, ident ctxutil.Identity, incidentID uuid.UUID, notes string) (*models.Incident, error) {
	if !ident.Role.IsStaff() {
		return nil, ErrStaffOnly
	}
	if _, err := s.Get(ctx, ident, incidentID); err != nil {
		return nil, err
	}
	return db.ResolveIncident(ctx, s.dbh, incidentID, notes)
}
