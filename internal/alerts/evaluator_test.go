package alerts

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivia/school-wellbeing-backend/internal/models"
	"github.com/convivia/school-wellbeing-backend/internal/notify"
)

// fakeStore keeps everything in slices, newest log first, like the SQL
// queries return them.
type fakeStore struct {
	logs      []models.EmotionalLog
	incidents int
	alerts    []models.Alert
	resolvers []uuid.UUID
	insertErr error
}

func (f *fakeStore) RecentDailyLogs(_ context.Context, _ uuid.UUID, limit int) ([]models.EmotionalLog, error) {
	if len(f.logs) < limit {
		return f.logs, nil
	}
	return f.logs[:limit], nil
}

func (f *fakeStore) LatestDailyLog(_ context.Context, _ uuid.UUID) (*models.EmotionalLog, error) {
	if len(f.logs) == 0 {
		return nil, nil
	}
	l := f.logs[0]
	return &l, nil
}

func (f *fakeStore) CountRecentUnresolvedIncidents(_ context.Context, _ uuid.UUID, _ int) (int, error) {
	return f.incidents, nil
}

func (f *fakeStore) InsertAlert(_ context.Context, a models.Alert) (uuid.UUID, error) {
	if f.insertErr != nil {
		return uuid.Nil, f.insertErr
	}
	a.ID = uuid.New()
	f.alerts = append(f.alerts, a)
	return a.ID, nil
}

func (f *fakeStore) AlertResolverIDs(_ context.Context, _ uuid.UUID) ([]uuid.UUID, error) {
	return f.resolvers, nil
}

// fakeBus records published events.
type fakeBus struct {
	events []notify.Event
	err    error
}

func (b *fakeBus) Publish(_ context.Context, ev notify.Event) error {
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, ev)
	return nil
}

func newTestEvaluator(store *fakeStore) *Evaluator {
	return NewEvaluatorWithStore(store, NewKeywordClassifier(), nil, zap.NewNop().Sugar())
}

// addDaily prepends, keeping newest-first order.
func (f *fakeStore) addDaily(e models.Emotion) models.EmotionalLog {
	l := models.EmotionalLog{
		ID:        uuid.New(),
		StudentID: uuid.New(),
		Emotion:   e,
		Type:      models.LogTypeDaily,
	}
	f.logs = append([]models.EmotionalLog{l}, f.logs...)
	return l
}

func TestEvaluatorNegativeStreak(t *testing.T) {
	store := &fakeStore{}
	ev := newTestEvaluator(store)
	ctx := context.Background()

	checkin := func(e models.Emotion) {
		l := store.addDaily(e)
		ev.Dispatch(ctx, ev.AfterEmotionalLog(ctx, l))
	}

	checkin(models.EmotionMal)
	checkin(models.EmotionMuyMal)
	if len(store.alerts) != 0 {
		t.Fatalf("no alert expected before the 3rd bad day, got %d", len(store.alerts))
	}

	checkin(models.EmotionMal)
	if len(store.alerts) != 1 {
		t.Fatalf("exactly one alert expected after the 3rd bad day, got %d", len(store.alerts))
	}
	if store.alerts[0].Type != models.AlertNegativeStreak {
		t.Fatalf("wrong alert type %q", store.alerts[0].Type)
	}

	// a 4th bad day is a new 3-day window and raises a second alert
	checkin(models.EmotionMuyMal)
	if len(store.alerts) != 2 {
		t.Fatalf("second alert expected on the 4th bad day, got %d", len(store.alerts))
	}

	// a good day resets; the next bad day alone does not trigger
	checkin(models.EmotionBien)
	checkin(models.EmotionMal)
	if len(store.alerts) != 2 {
		t.Fatalf("no new alert expected after the streak was broken, got %d", len(store.alerts))
	}
}

func TestEvaluatorMentalHealthKeywords(t *testing.T) {
	store := &fakeStore{}
	ev := newTestEvaluator(store)
	ctx := context.Background()

	reflection := "siento que nadie me quiere"
	l := models.EmotionalLog{
		ID:         uuid.New(),
		StudentID:  uuid.New(),
		Emotion:    models.EmotionNeutral,
		Type:       models.LogTypeDaily,
		Reflection: &reflection,
	}
	ev.Dispatch(ctx, ev.AfterEmotionalLog(ctx, l))

	if len(store.alerts) != 1 {
		t.Fatalf("high-tier reflection must raise one alert, got %d", len(store.alerts))
	}
	if store.alerts[0].Type != models.AlertMentalHealthConcern {
		t.Fatalf("wrong alert type %q", store.alerts[0].Type)
	}
}

func TestEvaluatorPerceptionDiscrepancy(t *testing.T) {
	ctx := context.Background()

	t.Run("triggers_on_mismatch", func(t *testing.T) {
		store := &fakeStore{}
		store.addDaily(models.EmotionMuyBien)
		ev := newTestEvaluator(store)

		ev.Dispatch(ctx, ev.AfterPerception(ctx, models.TeacherStudentPerception{
			ID:             uuid.New(),
			WellbeingScore: 1,
		}))
		if len(store.alerts) != 1 || store.alerts[0].Type != models.AlertTeacherDiscrepancy {
			t.Fatalf("expected one discrepancy alert, got %+v", store.alerts)
		}
	})

	t.Run("silent_when_reports_agree", func(t *testing.T) {
		store := &fakeStore{}
		store.addDaily(models.EmotionMal)
		ev := newTestEvaluator(store)

		ev.Dispatch(ctx, ev.AfterPerception(ctx, models.TeacherStudentPerception{
			ID:             uuid.New(),
			WellbeingScore: 1,
		}))
		if len(store.alerts) != 0 {
			t.Fatalf("agreement must not raise alerts, got %+v", store.alerts)
		}
	})
}

func TestEvaluatorRepeatedIncidents(t *testing.T) {
	store := &fakeStore{incidents: 3}
	ev := newTestEvaluator(store)
	ctx := context.Background()

	ev.Dispatch(ctx, ev.AfterIncident(ctx, models.Incident{ID: uuid.New()}))
	if len(store.alerts) != 1 || store.alerts[0].Type != models.AlertRepeatedIncident {
		t.Fatalf("expected one dec_repetido alert, got %+v", store.alerts)
	}

	store.alerts = nil
	store.incidents = 2
	ev.Dispatch(ctx, ev.AfterIncident(ctx, models.Incident{ID: uuid.New()}))
	if len(store.alerts) != 0 {
		t.Fatalf("below threshold must stay silent, got %+v", store.alerts)
	}
}

func TestDispatchSwallowsInsertFailures(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("db down")}
	ev := newTestEvaluator(store)

	// must not panic or propagate
	ev.Dispatch(context.Background(), []models.Alert{{Type: models.AlertNegativeStreak}})
}

func TestDispatchNotifiesResolvers(t *testing.T) {
	ctx := context.Background()
	resolvers := []uuid.UUID{uuid.New(), uuid.New()}
	inst := uuid.New()

	t.Run("one_event_per_resolver", func(t *testing.T) {
		store := &fakeStore{resolvers: resolvers}
		bus := &fakeBus{}
		ev := NewEvaluatorWithStore(store, NewKeywordClassifier(), bus, zap.NewNop().Sugar())

		ev.Dispatch(ctx, []models.Alert{{InstitutionID: inst, Type: models.AlertNegativeStreak}})

		if len(bus.events) != len(resolvers) {
			t.Fatalf("expected %d events, got %d", len(resolvers), len(bus.events))
		}
		for i, got := range bus.events {
			if got.Kind != notify.EventAlertCreated {
				t.Fatalf("event %d kind = %q", i, got.Kind)
			}
			if got.RecipientID != resolvers[i] {
				t.Fatalf("event %d recipient = %s, want %s", i, got.RecipientID, resolvers[i])
			}
			if got.AlertID == uuid.Nil {
				t.Fatalf("event %d carries no alert id", i)
			}
		}
	})

	t.Run("silent_when_insert_fails", func(t *testing.T) {
		store := &fakeStore{resolvers: resolvers, insertErr: errors.New("db down")}
		bus := &fakeBus{}
		ev := NewEvaluatorWithStore(store, NewKeywordClassifier(), bus, zap.NewNop().Sugar())

		ev.Dispatch(ctx, []models.Alert{{InstitutionID: inst, Type: models.AlertNegativeStreak}})
		if len(bus.events) != 0 {
			t.Fatalf("failed insert must not broadcast, got %d events", len(bus.events))
		}
	})

	t.Run("publish_failure_is_swallowed", func(t *testing.T) {
		store := &fakeStore{resolvers: resolvers}
		bus := &fakeBus{err: errors.New("redis down")}
		ev := NewEvaluatorWithStore(store, NewKeywordClassifier(), bus, zap.NewNop().Sugar())

		// must not panic or propagate; the alert row is already in
		ev.Dispatch(ctx, []models.Alert{{InstitutionID: inst, Type: models.AlertNegativeStreak}})
		if len(store.alerts) != 1 {
			t.Fatalf("alert insert must survive a broadcast failure, got %d rows", len(store.alerts))
		}
	})
}
