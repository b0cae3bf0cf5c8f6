package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/convivia/school-wellbeing-backend/internal/alerts"
	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/models"
)

// countingAlertStore satisfies the evaluator store; only alert inserts are
// counted, everything else returns empty.
type countingAlertStore struct {
	inserts int
}

func (s *countingAlertStore) RecentDailyLogs(context.Context, uuid.UUID, int) ([]models.EmotionalLog, error) {
	return nil, nil
}
func (s *countingAlertStore) LatestDailyLog(context.Context, uuid.UUID) (*models.EmotionalLog, error) {
	return nil, nil
}
func (s *countingAlertStore) CountRecentUnresolvedIncidents(context.Context, uuid.UUID, int) (int, error) {
	return 0, nil
}
func (s *countingAlertStore) InsertAlert(context.Context, models.Alert) (uuid.UUID, error) {
	s.inserts++
	return uuid.New(), nil
}
func (s *countingAlertStore) AlertResolverIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func TestCreateEmotionalLogBlocksCriticalReflection(t *testing.T) {
	store := &countingAlertStore{}
	// opts.DB stays nil: reaching the insert would dereference it, so a
	// clean return proves no row was attempted.
	s := &server{
		opts: &Options{
			Evaluator: alerts.NewEvaluatorWithStore(store, alerts.NewKeywordClassifier(), nil, zap.NewNop().Sugar()),
			Location:  time.UTC,
		},
		log: zap.NewNop().Sugar(),
	}

	e := echo.New()
	e.Validator = &structValidator{validate: validator.New()}
	body := `{"emotion":"muy_mal","intensity":5,"type":"daily","reflection":"ya no quiero vivir"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/emotional-logs", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(identityKey, ctxutil.Identity{
		ProfileID:     uuid.New(),
		Role:          models.RoleStudent,
		InstitutionID: uuid.New(),
	})

	if err := s.createEmotionalLog(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp blockedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Blocked {
		t.Fatal("critical reflection must come back blocked")
	}
	if resp.Message == "" {
		t.Fatal("blocked response must carry a message")
	}
	if len(resp.Contacts) == 0 {
		t.Fatal("blocked response must list emergency contacts")
	}
	if store.inserts != 0 {
		t.Fatalf("critical reflection must create no alert, got %d", store.inserts)
	}
}

func TestCalendarDay(t *testing.T) {
	santiago := time.FixedZone("CLT", -4*60*60)

	// 21:30 local is already the next day in UTC; the log date must stay on
	// the local calendar day
	evening := time.Date(2026, 3, 1, 21, 30, 0, 0, santiago)
	if got := calendarDay(evening, santiago); !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("evening check-in mapped to %v", got)
	}

	// two check-ins on the same local day collapse to one date even when
	// they straddle the UTC midnight
	early := time.Date(2026, 3, 1, 19, 0, 0, 0, santiago)
	if calendarDay(early, santiago) != calendarDay(evening, santiago) {
		t.Fatal("same local day must map to the same log date")
	}

	// one minute past local midnight starts a new log date
	pastMidnight := time.Date(2026, 3, 2, 0, 1, 0, 0, santiago)
	if calendarDay(pastMidnight, santiago) != time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) {
		t.Fatal("local midnight must open a new log date")
	}
}
