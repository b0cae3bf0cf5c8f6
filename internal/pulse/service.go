package pulse

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

var (
	ErrStaffOnly       = errors.New("staff role required")
	ErrNoActiveSession = errors.New("no active pulse session")

	ErrSessionActive    = db.ErrSessionActive
	ErrAlreadySubmitted = db.ErrAlreadySubmitted
)

// Service runs Modo Pulso: weekly institution-wide climate survey windows.
type Service struct {
	dbh *sql.DB
	log *zap.SugaredLogger
}

func NewService(dbh *sql.DB, log *zap.SugaredLogger) *Service {
	return &Service{dbh: dbh, log: log.With("service", "pulse")}
}

// Activate opens a one-week session starting at weekStart. The storage layer
// guarantees at most one active session per institution; a second activation
// fails with ErrSessionActive and creates no row.
func (s *Service) Activate(ctx context.Context, ident ctxutil.Identity, weekStart time.Time) (*models.PulseSession, error) {
	if !ident.Role.IsStaff() {
		return nil, ErrStaffOnly
	}
	weekStart = weekStart.Truncate(24 * time.Hour)
	return db.ActivatePulseSession(ctx, s.dbh, models.PulseSession{
		InstitutionID: ident.InstitutionID,
		WeekStart:     weekStart,
		WeekEnd:       weekStart.AddDate(0, 0, 6),
	})
}

func (s *Service) Close(ctx context.Context, ident ctxutil.Identity) error {
	if !ident.Role.IsStaff() {
		return ErrStaffOnly
	}
	active, err := db.ActivePulseSession(ctx, s.dbh, ident.InstitutionID)
	if err != nil {
		return err
	}
	if active == nil {
		return ErrNoActiveSession
	}
	return db.ClosePulseSession(ctx, s.dbh, active.ID)
}

func (s *Service) Active(ctx context.Context, ident ctxutil.Identity) (*models.PulseSession, error) {
	return db.ActivePulseSession(ctx, s.dbh, ident.InstitutionID)
}

// SubmitStudentEntry records one submission per student per session; the
// unique constraint arbitrates duplicates.
func (s *Service) SubmitStudentEntry(ctx context.Context, ident ctxutil.Identity, mood, safety, belonging int) (uuid.UUID, error) {
	active, err := db.ActivePulseSession(ctx, s.dbh, ident.InstitutionID)
	if err != nil {
		return uuid.Nil, err
	}
	if active == nil {
		return uuid.Nil, ErrNoActiveSession
	}
	return db.InsertPulseStudentEntry(ctx, s.dbh, models.PulseStudentEntry{
		SessionID: active.ID,
		StudentID: ident.ProfileID,
		Mood:      mood,
		Safety:    safety,
		Belonging: belonging,
	})
}

func (s *Service) SubmitTeacherEntry(ctx context.Context, ident ctxutil.Identity, courseID uuid.UUID, climate int, notes *string) (uuid.UUID, error) {
	active, err := db.ActivePulseSession(ctx, s.dbh, ident.InstitutionID)
	if err != nil {
		return uuid.Nil, err
	}
	if active == nil {
		return uuid.Nil, ErrNoActiveSession
	}
	return db.InsertPulseTeacherEntry(ctx, s.dbh, models.PulseTeacherEntry{
		SessionID: active.ID,
		TeacherID: ident.ProfileID,
		CourseID:  courseID,
		Climate:   climate,
		Notes:     notes,
	})
}

// CloseExpired is the weekly sweep: closes every active session whose window
// already ended.
func (s *Service) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := db.CloseExpiredPulseSessions(ctx, s.dbh, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Infow("closed expired pulse sessions", "count", n)
	}
	return n, nil
}
