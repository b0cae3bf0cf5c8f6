//go:build testutil
// +build testutil

package db_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/models"
	"github.com/convivia/school-wellbeing-backend/internal/testutil/testdb"
)

func startDB(t *testing.T) (context.Context, *testdb.DBHandle) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)
	return ctx, h
}

func mustProfile(t *testing.T, ctx context.Context, h *testdb.DBHandle, institutionID uuid.UUID, role models.Role) models.Profile {
	t.Helper()
	p := models.Profile{
		InstitutionID: institutionID,
		Name:          string(role) + " de prueba",
		Email:         fmt.Sprintf("%s-%s@colegio.cl", role, uuid.NewString()[:8]),
		Role:          role,
		PasswordHash:  "x",
	}
	id, err := db.CreateProfile(ctx, h.DB, p)
	if err != nil {
		t.Fatal(err)
	}
	p.ID = id
	return p
}

func TestEmotionalLogDailyUniqueness(t *testing.T) {
	ctx, h := startDB(t)
	inst := uuid.New()
	student := mustProfile(t, ctx, h, inst, models.RoleStudent)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	l := models.EmotionalLog{
		InstitutionID: inst,
		StudentID:     student.ID,
		Emotion:       models.EmotionMal,
		Intensity:     3,
		Type:          models.LogTypeDaily,
		LogDate:       today,
	}

	if _, err := db.InsertEmotionalLog(ctx, h.DB, l); err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertEmotionalLog(ctx, h.DB, l); !errors.Is(err, db.ErrAlreadyLoggedToday) {
		t.Fatalf("second daily log must fail with ErrAlreadyLoggedToday, got %v", err)
	}

	// a weekly log the same day is fine
	l.Type = models.LogTypeWeekly
	if _, err := db.InsertEmotionalLog(ctx, h.DB, l); err != nil {
		t.Fatalf("weekly log must not collide with daily: %v", err)
	}
}

func TestPulseSessionSingleActive(t *testing.T) {
	ctx, h := startDB(t)
	inst := uuid.New()
	student := mustProfile(t, ctx, h, inst, models.RoleStudent)

	weekStart := time.Now().UTC().Truncate(24 * time.Hour)
	session, err := db.ActivatePulseSession(ctx, h.DB, models.PulseSession{
		InstitutionID: inst,
		WeekStart:     weekStart,
		WeekEnd:       weekStart.AddDate(0, 0, 6),
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = db.ActivatePulseSession(ctx, h.DB, models.PulseSession{
		InstitutionID: inst,
		WeekStart:     weekStart,
		WeekEnd:       weekStart.AddDate(0, 0, 6),
	})
	if !errors.Is(err, db.ErrSessionActive) {
		t.Fatalf("second activation must fail with ErrSessionActive, got %v", err)
	}

	// another institution can run its own session concurrently
	if _, err := db.ActivatePulseSession(ctx, h.DB, models.PulseSession{
		InstitutionID: uuid.New(),
		WeekStart:     weekStart,
		WeekEnd:       weekStart.AddDate(0, 0, 6),
	}); err != nil {
		t.Fatalf("other institution must be able to activate: %v", err)
	}

	entry := models.PulseStudentEntry{
		SessionID: session.ID,
		StudentID: student.ID,
		Mood:      4, Safety: 4, Belonging: 5,
	}
	if _, err := db.InsertPulseStudentEntry(ctx, h.DB, entry); err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertPulseStudentEntry(ctx, h.DB, entry); !errors.Is(err, db.ErrAlreadySubmitted) {
		t.Fatalf("duplicate submission must fail with ErrAlreadySubmitted, got %v", err)
	}

	if err := db.ClosePulseSession(ctx, h.DB, session.ID); err != nil {
		t.Fatal(err)
	}
	active, err := db.ActivePulseSession(ctx, h.DB, inst)
	if err != nil {
		t.Fatal(err)
	}
	if active != nil {
		t.Fatal("no session should be active after close")
	}

	// closing frees the slot for the next activation
	if _, err := db.ActivatePulseSession(ctx, h.DB, models.PulseSession{
		InstitutionID: inst,
		WeekStart:     weekStart.AddDate(0, 0, 7),
		WeekEnd:       weekStart.AddDate(0, 0, 13),
	}); err != nil {
		t.Fatalf("re-activation after close must work: %v", err)
	}
}

func TestMailboxClosedThreadRejectsWrites(t *testing.T) {
	ctx, h := startDB(t)
	inst := uuid.New()
	parent := mustProfile(t, ctx, h, inst, models.RoleParent)
	dupla := mustProfile(t, ctx, h, inst, models.RoleDupla)

	thread, err := db.CreateThread(ctx, h.DB, models.MailboxThread{
		InstitutionID: inst,
		CreatedBy:     parent.ID,
		Subject:       "consulta sobre mi hijo",
	})
	if err != nil {
		t.Fatal(err)
	}
	if thread.Status != models.ThreadOpen {
		t.Fatalf("new thread must be abierto, got %s", thread.Status)
	}

	if _, err := db.InsertThreadMessage(ctx, h.DB, models.MailboxMessage{
		ThreadID: thread.ID, SenderID: parent.ID, Content: "hola",
	}); err != nil {
		t.Fatal(err)
	}

	ok, err := db.TransitionThread(ctx, h.DB, thread.ID, models.ThreadOpen, models.ThreadClosed)
	if err != nil || !ok {
		t.Fatalf("open -> closed should succeed, ok=%v err=%v", ok, err)
	}

	// the conditional update protects against a stale transition
	ok, err = db.TransitionThread(ctx, h.DB, thread.ID, models.ThreadOpen, models.ThreadInProgress)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("transition from a stale status must not apply")
	}

	_, err = db.InsertThreadMessage(ctx, h.DB, models.MailboxMessage{
		ThreadID: thread.ID, SenderID: dupla.ID, Content: "respuesta tardía",
	})
	if !errors.Is(err, db.ErrThreadClosed) {
		t.Fatalf("write to closed thread must fail with ErrThreadClosed, got %v", err)
	}

	msgs, err := db.ListThreadMessages(ctx, h.DB, thread.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("closed thread must keep exactly the pre-close message, got %d", len(msgs))
	}
}

func TestAlertResolveIsTerminalAndIdempotent(t *testing.T) {
	ctx, h := startDB(t)
	inst := uuid.New()
	student := mustProfile(t, ctx, h, inst, models.RoleStudent)
	first := mustProfile(t, ctx, h, inst, models.RoleDupla)
	second := mustProfile(t, ctx, h, inst, models.RoleDirector)

	alertID, err := db.InsertAlert(ctx, h.DB, models.Alert{
		InstitutionID: inst,
		StudentID:     student.ID,
		Type:          models.AlertNegativeStreak,
		Description:   "3 registros negativos",
	})
	if err != nil {
		t.Fatal(err)
	}

	resolved, err := db.ResolveAlert(ctx, h.DB, alertID, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !resolved.Resolved || resolved.ResolvedBy == nil || *resolved.ResolvedBy != first.ID {
		t.Fatalf("alert not resolved by first resolver: %+v", resolved)
	}

	// second resolve is a no-op; the original resolver stands
	again, err := db.ResolveAlert(ctx, h.DB, alertID, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.ResolvedBy == nil || *again.ResolvedBy != first.ID {
		t.Fatalf("resolution must be terminal, got resolver %v", again.ResolvedBy)
	}
}

func TestConversationPairIsUnique(t *testing.T) {
	ctx, h := startDB(t)
	inst := uuid.New()
	a := mustProfile(t, ctx, h, inst, models.RoleParent)
	b := mustProfile(t, ctx, h, inst, models.RoleTeacher)

	c1, err := db.GetOrCreateConversation(ctx, h.DB, a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	// opposite order resolves to the same conversation
	c2, err := db.GetOrCreateConversation(ctx, h.DB, b.ID, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if c1.ID != c2.ID {
		t.Fatalf("pair must map to one conversation, got %s and %s", c1.ID, c2.ID)
	}
	if c1.Other(a.ID) != b.ID || c1.Other(b.ID) != a.ID {
		t.Fatal("Other() must return the peer")
	}
}

func TestUnreadCounts(t *testing.T) {
	ctx, h := startDB(t)
	inst := uuid.New()
	a := mustProfile(t, ctx, h, inst, models.RoleParent)
	b := mustProfile(t, ctx, h, inst, models.RoleDupla)

	conv, err := db.GetOrCreateConversation(ctx, h.DB, a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := db.InsertMessage(ctx, h.DB, models.Message{
			ConversationID: conv.ID,
			SenderID:       b.ID,
			Content:        fmt.Sprintf("mensaje %d", i),
		}); err != nil {
			t.Fatal(err)
		}
	}

	counts, err := db.UnreadCounts(ctx, h.DB, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if counts[conv.ID] != 3 {
		t.Fatalf("expected 3 unread for recipient, got %d", counts[conv.ID])
	}

	// own messages never count for the sender
	senderCounts, err := db.UnreadCounts(ctx, h.DB, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if senderCounts[conv.ID] != 0 {
		t.Fatalf("sender must have 0 unread, got %d", senderCounts[conv.ID])
	}

	if err := db.UpsertMessageRead(ctx, h.DB, conv.ID, a.ID, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
	counts, err = db.UnreadCounts(ctx, h.DB, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if counts[conv.ID] != 0 {
		t.Fatalf("after mark-read the recompute must be 0, got %d", counts[conv.ID])
	}
}

func TestIncidentFolioSequence(t *testing.T) {
	ctx, h := startDB(t)
	inst := uuid.New()
	student := mustProfile(t, ctx, h, inst, models.RoleStudent)
	reporter := mustProfile(t, ctx, h, inst, models.RoleConvivencia)

	file := func() *models.Incident {
		in, err := db.InsertIncident(ctx, h.DB, models.Incident{
			InstitutionID: inst,
			StudentID:     student.ID,
			ReporterID:    reporter.ID,
			Type:          "desregulación",
			Severity:      models.SeverityModerada,
			Description:   "episodio en aula",
			IncidentDate:  time.Now().UTC(),
		})
		if err != nil {
			t.Fatal(err)
		}
		return in
	}

	year := time.Now().Year()
	var filed []*models.Incident
	for i := 1; i <= 3; i++ {
		in := file()
		filed = append(filed, in)
		want := fmt.Sprintf("DEC-%d-%04d", year, i)
		if in.Folio != want {
			t.Fatalf("folio = %q, want %q", in.Folio, want)
		}
		if !strings.HasPrefix(in.Folio, "DEC-") {
			t.Fatalf("folio prefix wrong: %q", in.Folio)
		}
	}

	// deleting a middle case leaves a gap; numbering must keep advancing past
	// the highest surviving folio instead of re-colliding with it
	if _, err := db.DeleteIncident(ctx, h.DB, filed[1].ID); err != nil {
		t.Fatal(err)
	}
	in := file()
	if want := fmt.Sprintf("DEC-%d-%04d", year, 4); in.Folio != want {
		t.Fatalf("folio after gap = %q, want %q", in.Folio, want)
	}
}

func TestTeacherLogDailyUniqueness(t *testing.T) {
	ctx, h := startDB(t)
	inst := uuid.New()
	teacher := mustProfile(t, ctx, h, inst, models.RoleTeacher)

	courseID, err := db.CreateCourse(ctx, h.DB, models.Course{InstitutionID: inst, Name: "1A"})
	if err != nil {
		t.Fatal(err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	l := models.TeacherLog{
		InstitutionID: inst,
		TeacherID:     teacher.ID,
		CourseID:      courseID,
		EnergyLevel:   models.EnergyRegulada,
		Tags:          []string{"participativo", "tranquilo"},
		LogDate:       today,
	}
	if _, err := db.InsertTeacherLog(ctx, h.DB, l); err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertTeacherLog(ctx, h.DB, l); !errors.Is(err, db.ErrAlreadyLoggedToday) {
		t.Fatalf("second course log the same day must fail, got %v", err)
	}

	logs, err := db.ListTeacherLogsByCourse(ctx, h.DB, courseID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || len(logs[0].Tags) != 2 {
		t.Fatalf("tags round-trip failed: %+v", logs)
	}
}
