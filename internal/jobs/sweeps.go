package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/metrics"
	"github.com/convivia/school-wellbeing-backend/internal/models"
	"github.com/convivia/school-wellbeing-backend/internal/pulse"
)

const inactivityDays = 7

// Sweeps holds the periodic maintenance passes over persisted state.
type Sweeps struct {
	dbh   *sql.DB
	pulse *pulse.Service
	log   *zap.SugaredLogger
	loc   *time.Location
}

func NewSweeps(dbh *sql.DB, pulseSvc *pulse.Service, log *zap.SugaredLogger, loc *time.Location) *Sweeps {
	return &Sweeps{dbh: dbh, pulse: pulseSvc, log: log.With("component", "sweeps"), loc: loc}
}

// ClosePulseSessions ends every active survey window that is already past its
// end date.
func (s *Sweeps) ClosePulseSessions(ctx context.Context) error {
	_, err := s.pulse.CloseExpired(ctx, time.Now().In(s.loc))
	return err
}

// InactivityAlerts raises one sin_registro alert per student who has not
// checked in for a week. The query skips students who already carry an open
// sin_registro alert, so the sweep is safe to re-run at any frequency.
func (s *Sweeps) InactivityAlerts(ctx context.Context) error {
	institutions, err := db.ListInstitutionIDs(ctx, s.dbh)
	if err != nil {
		return err
	}

	cutoff := time.Now().In(s.loc).AddDate(0, 0, -inactivityDays)
	raised := 0
	for _, institutionID := range institutions {
		students, err := db.StudentsWithoutDailyLogSince(ctx, s.dbh, institutionID, cutoff)
		if err != nil {
			return err
		}
		for _, st := range students {
			_, err := db.InsertAlert(ctx, s.dbh, models.Alert{
				InstitutionID: st.InstitutionID,
				StudentID:     st.ID,
				Type:          models.AlertNoRecentActivity,
				Description:   fmt.Sprintf("sin registro emocional hace %d días", inactivityDays),
			})
			if err != nil {
				metrics.AlertInsertFailures.Inc()
				s.log.Errorw("inactivity alert insert failed", "student", st.ID, "err", err)
				continue
			}
			metrics.AlertsCreated.WithLabelValues(string(models.AlertNoRecentActivity)).Inc()
			raised++
		}
	}
	if raised > 0 {
		s.log.Infow("inactivity sweep raised alerts", "count", raised)
	}
	return nil
}
