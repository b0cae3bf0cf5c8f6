package alerts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/metrics"
	"github.com/convivia/school-wellbeing-backend/internal/models"
	"github.com/convivia/school-wellbeing-backend/internal/notify"
	"github.com/convivia/school-wellbeing-backend/internal/observability"
)

// Store is the slice of persistence the evaluator needs. Tests plug an
// in-memory implementation.
type Store interface {
	RecentDailyLogs(ctx context.Context, studentID uuid.UUID, limit int) ([]models.EmotionalLog, error)
	LatestDailyLog(ctx context.Context, studentID uuid.UUID) (*models.EmotionalLog, error)
	CountRecentUnresolvedIncidents(ctx context.Context, studentID uuid.UUID, days int) (int, error)
	InsertAlert(ctx context.Context, a models.Alert) (uuid.UUID, error)
	AlertResolverIDs(ctx context.Context, institutionID uuid.UUID) ([]uuid.UUID, error)
}

// Publisher is the outbound half of the realtime bus.
type Publisher interface {
	Publish(ctx context.Context, ev notify.Event) error
}

type sqlStore struct{ dbh *sql.DB }

func (s sqlStore) RecentDailyLogs(ctx context.Context, studentID uuid.UUID, limit int) ([]models.EmotionalLog, error) {
	return db.RecentDailyLogs(ctx, s.dbh, studentID, limit)
}
func (s sqlStore) LatestDailyLog(ctx context.Context, studentID uuid.UUID) (*models.EmotionalLog, error) {
	return db.LatestDailyLog(ctx, s.dbh, studentID)
}
func (s sqlStore) CountRecentUnresolvedIncidents(ctx context.Context, studentID uuid.UUID, days int) (int, error) {
	return db.CountRecentUnresolvedIncidents(ctx, s.dbh, studentID, days)
}
func (s sqlStore) InsertAlert(ctx context.Context, a models.Alert) (uuid.UUID, error) {
	return db.InsertAlert(ctx, s.dbh, a)
}
func (s sqlStore) AlertResolverIDs(ctx context.Context, institutionID uuid.UUID) ([]uuid.UUID, error) {
	return db.AlertResolverIDs(ctx, s.dbh, institutionID)
}

// Evaluator turns freshly written behavioral signals into alert rows. It runs
// synchronously after the primary write and its failures are strictly
// best-effort: the write that triggered it has already succeeded and must
// keep looking successful to the user.
type Evaluator struct {
	store      Store
	classifier Classifier
	bus        Publisher // nil disables realtime fan-out
	log        *zap.SugaredLogger
}

func NewEvaluator(dbh *sql.DB, bus Publisher, log *zap.SugaredLogger) *Evaluator {
	return &Evaluator{store: sqlStore{dbh: dbh}, classifier: NewKeywordClassifier(), bus: bus, log: log}
}

// NewEvaluatorWithStore is for tests.
func NewEvaluatorWithStore(store Store, classifier Classifier, bus Publisher, log *zap.SugaredLogger) *Evaluator {
	return &Evaluator{store: store, classifier: classifier, bus: bus, log: log}
}

func (e *Evaluator) Classifier() Classifier { return e.classifier }

// AfterEmotionalLog evaluates the negative-streak and mental-health rules for
// a just-inserted log and returns the alerts to materialize. The returned
// slice is an outbox: the caller hands it to Dispatch, which may fail
// independently of the primary write.
func (e *Evaluator) AfterEmotionalLog(ctx context.Context, l models.EmotionalLog) []models.Alert {
	metrics.AlertEvaluations.Inc()
	var pending []models.Alert

	if l.Type == models.LogTypeDaily && l.Emotion.IsNegative() {
		recent, err := e.store.RecentDailyLogs(ctx, l.StudentID, streakWindow)
		if err != nil {
			e.swallow("negative streak window fetch", err)
		} else if NegativeStreak(recent) {
			pending = append(pending, models.Alert{
				InstitutionID: l.InstitutionID,
				StudentID:     l.StudentID,
				Type:          models.AlertNegativeStreak,
				Description:   fmt.Sprintf("%d registros diarios negativos consecutivos", streakWindow),
				TriggeredBy:   ref(l.ID),
			})
		}
	}

	if l.Reflection != nil && e.classifier.Classify(*l.Reflection) == RiskHigh {
		pending = append(pending, models.Alert{
			InstitutionID: l.InstitutionID,
			StudentID:     l.StudentID,
			Type:          models.AlertMentalHealthConcern,
			Description:   "la reflexión contiene lenguaje de riesgo",
			TriggeredBy:   ref(l.ID),
		})
	}

	return pending
}

// AfterPerception evaluates the teacher/student discrepancy rule.
func (e *Evaluator) AfterPerception(ctx context.Context, p models.TeacherStudentPerception) []models.Alert {
	metrics.AlertEvaluations.Inc()

	if p.WellbeingScore > 2 {
		return nil
	}
	latest, err := e.store.LatestDailyLog(ctx, p.StudentID)
	if err != nil {
		e.swallow("latest daily log fetch", err)
		return nil
	}
	if !Discrepancy(p.WellbeingScore, latest) {
		return nil
	}
	return []models.Alert{{
		InstitutionID: p.InstitutionID,
		StudentID:     p.StudentID,
		Type:          models.AlertTeacherDiscrepancy,
		Description: fmt.Sprintf("percepción docente %d/5 frente a autoreporte %q del estudiante",
			p.WellbeingScore, latest.Emotion),
		TriggeredBy: ref(p.ID),
	}}
}

// AfterIncident evaluates the dec_repetido rule.
func (e *Evaluator) AfterIncident(ctx context.Context, in models.Incident) []models.Alert {
	metrics.AlertEvaluations.Inc()

	n, err := e.store.CountRecentUnresolvedIncidents(ctx, in.StudentID, repeatedIncidentDays)
	if err != nil {
		e.swallow("incident count fetch", err)
		return nil
	}
	if !RepeatedIncidents(n) {
		return nil
	}
	return []models.Alert{{
		InstitutionID: in.InstitutionID,
		StudentID:     in.StudentID,
		Type:          models.AlertRepeatedIncident,
		Description:   fmt.Sprintf("%d casos DEC sin resolver en %d días", n, repeatedIncidentDays),
		TriggeredBy:   ref(in.ID),
	}}
}

// Dispatch materializes pending alerts. Insert failures are logged, captured
// and counted but never propagated: alerting must not fail the action that
// produced the signal.
func (e *Evaluator) Dispatch(ctx context.Context, pending []models.Alert) {
	for _, a := range pending {
		id, err := e.store.InsertAlert(ctx, a)
		if err != nil {
			metrics.AlertInsertFailures.Inc()
			e.swallow("alert insert", err)
			continue
		}
		metrics.AlertsCreated.WithLabelValues(string(a.Type)).Inc()
		e.notifyResolvers(ctx, a, id)
	}
}

// notifyResolvers pushes alert_created to every staff member who can act on
// the alert. Same best-effort contract as the insert itself.
func (e *Evaluator) notifyResolvers(ctx context.Context, a models.Alert, alertID uuid.UUID) {
	if e.bus == nil {
		return
	}
	resolvers, err := e.store.AlertResolverIDs(ctx, a.InstitutionID)
	if err != nil {
		e.swallow("resolver lookup", err)
		return
	}
	now := time.Now().UTC()
	for _, rid := range resolvers {
		ev := notify.Event{
			Kind:        notify.EventAlertCreated,
			RecipientID: rid,
			AlertID:     alertID,
			CreatedAt:   now,
		}
		if err := e.bus.Publish(ctx, ev); err != nil {
			e.swallow("alert broadcast", err)
		}
	}
}

func (e *Evaluator) swallow(op string, err error) {
	e.log.Errorw("alert side effect failed", "op", op, "err", err)
	observability.CaptureErr(err)
}

func ref(id uuid.UUID) *uuid.UUID { return &id }
