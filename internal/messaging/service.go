package messaging

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivia/school-wellbeing-backend/internal/ctxutil"
	"github.com/convivia/school-wellbeing-backend/internal/db"
	"github.com/convivia/school-wellbeing-backend/internal/metrics"
	"github.com/convivia/school-wellbeing-backend/internal/models"
	"github.com/convivia/school-wellbeing-backend/internal/notify"
)

var (
	ErrEmptyContent      = errors.New("message content is empty")
	ErrNotParticipant    = errors.New("not a participant of this conversation")
	ErrStaffOnly         = errors.New("staff role required")
	ErrInvalidTransition = errors.New("invalid thread status transition")

	// re-exported so handlers only import this package
	ErrThreadClosed = db.ErrThreadClosed
)

// Service owns both messaging subsystems: direct 1:1 chat and staff mailbox
// threads. They share the message-insert primitive but diverge in addressing
// and lifecycle.
type Service struct {
	dbh *sql.DB
	bus notify.Bus
	log *zap.SugaredLogger
}

func NewService(dbh *sql.DB, bus notify.Bus, log *zap.SugaredLogger) *Service {
	return &Service{dbh: dbh, bus: bus, log: log.With("service", "messaging")}
}

// StartConversation returns the single conversation for the pair, creating it
// on first contact.
func (s *Service) StartConversation(ctx context.Context, ident ctxutil.Identity, other uuid.UUID) (*models.Conversation, error) {
	return db.GetOrCreateConversation(ctx, s.dbh, ident.ProfileID, other)
}

func (s *Service) ListConversations(ctx context.Context, ident ctxutil.Identity) ([]models.Conversation, error) {
	return db.ListConversationsByUser(ctx, s.dbh, ident.ProfileID)
}

// SendDirectMessage inserts the message and then emits a best-effort
// broadcast to the recipient's channel. The broadcast may be lost; the
// recipient's next resync repairs the count.
func (s *Service) SendDirectMessage(ctx context.Context, ident ctxutil.Identity, conversationID uuid.UUID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	conv, err := db.GetConversation(ctx, s.dbh, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserA != ident.ProfileID && conv.UserB != ident.ProfileID {
		return nil, ErrNotParticipant
	}

	msg, err := db.InsertMessage(ctx, s.dbh, models.Message{
		ConversationID: conversationID,
		SenderID:       ident.ProfileID,
		Content:        content,
	})
	if err != nil {
		return nil, err
	}
	metrics.MessagesSent.WithLabelValues("direct").Inc()

	s.publish(ctx, notify.Event{
		Kind:           notify.EventNewMessage,
		RecipientID:    conv.Other(ident.ProfileID),
		SenderID:       ident.ProfileID,
		ConversationID: conversationID,
		MessageID:      msg.ID,
		CreatedAt:      msg.CreatedAt,
	})
	return msg, nil
}

func (s *Service) ListMessages(ctx context.Context, ident ctxutil.Identity, conversationID uuid.UUID, limit int) ([]models.Message, error) {
	conv, err := db.GetConversation(ctx, s.dbh, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserA != ident.ProfileID && conv.UserB != ident.ProfileID {
		return nil, ErrNotParticipant
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return db.ListMessages(ctx, s.dbh, conversationID, limit)
}

// MarkRead moves the caller's read cursor to now.
func (s *Service) MarkRead(ctx context.Context, ident ctxutil.Identity, conversationID uuid.UUID) error {
	conv, err := db.GetConversation(ctx, s.dbh, conversationID)
	if err != nil {
		return err
	}
	if conv.UserA != ident.ProfileID && conv.UserB != ident.ProfileID {
		return ErrNotParticipant
	}
	return db.UpsertMessageRead(ctx, s.dbh, conversationID, ident.ProfileID, time.Now().UTC())
}

// Mailbox

func (s *Service) CreateThread(ctx context.Context, ident ctxutil.Identity, subject string) (*models.MailboxThread, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrEmptyContent
	}
	return db.CreateThread(ctx, s.dbh, models.MailboxThread{
		InstitutionID: ident.InstitutionID,
		CreatedBy:     ident.ProfileID,
		Subject:       subject,
	})
}

func (s *Service) ListThreads(ctx context.Context, ident ctxutil.Identity) ([]models.MailboxThread, error) {
	return db.ListThreads(ctx, s.dbh, ident.InstitutionID)
}

func (s *Service) ThreadMessages(ctx context.Context, ident ctxutil.Identity, threadID uuid.UUID) ([]models.MailboxMessage, error) {
	t, err := db.GetThread(ctx, s.dbh, threadID)
	if err != nil {
		return nil, err
	}
	if t.CreatedBy != ident.ProfileID && !ident.Role.IsStaff() {
		return nil, ErrNotParticipant
	}
	return db.ListThreadMessages(ctx, s.dbh, threadID)
}

// TransitionThread moves a thread along its lifecycle. Staff only. The
// underlying update is conditional on the current status, so two staff
// members racing the same transition resolve cleanly: the loser observes the
// thread already at the target and gets it back without error.
func (s *Service) TransitionThread(ctx context.Context, ident ctxutil.Identity, threadID uuid.UUID, to models.ThreadStatus) (*models.MailboxThread, error) {
	if !ident.Role.IsStaff() {
		return nil, ErrStaffOnly
	}

	t, err := db.GetThread(ctx, s.dbh, threadID)
	if err != nil {
		return nil, err
	}
	if t.Status == to {
		return t, nil // idempotent
	}
	if !CanTransition(t.Status, to) {
		return nil, ErrInvalidTransition
	}

	ok, err := db.TransitionThread(ctx, s.dbh, threadID, t.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		// lost a race; report current state if it landed where we wanted
		cur, err := db.GetThread(ctx, s.dbh, threadID)
		if err != nil {
			return nil, err
		}
		if cur.Status != to {
			return nil, ErrInvalidTransition
		}
		return cur, nil
	}

	updated, err := db.GetThread(ctx, s.dbh, threadID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, notify.Event{
		Kind:        notify.EventThreadTransition,
		RecipientID: updated.CreatedBy,
		SenderID:    ident.ProfileID,
		ThreadID:    updated.ID,
		CreatedAt:   updated.UpdatedAt,
	})
	return updated, nil
}

// SendThreadMessage appends to a thread. Closed threads reject writes at the
// storage layer, not just in the UI.
func (s *Service) SendThreadMessage(ctx context.Context, ident ctxutil.Identity, threadID uuid.UUID, content string) (*models.MailboxMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	t, err := db.GetThread(ctx, s.dbh, threadID)
	if err != nil {
		return nil, err
	}
	if t.CreatedBy != ident.ProfileID && !ident.Role.IsStaff() {
		return nil, ErrNotParticipant
	}

	msg, err := db.InsertThreadMessage(ctx, s.dbh, models.MailboxMessage{
		ThreadID: threadID,
		SenderID: ident.ProfileID,
		Content:  content,
	})
	if err != nil {
		return nil, err
	}
	metrics.MessagesSent.WithLabelValues("mailbox").Inc()

	if t.CreatedBy != ident.ProfileID {
		s.publish(ctx, notify.Event{
			Kind:        notify.EventThreadMessage,
			RecipientID: t.CreatedBy,
			SenderID:    ident.ProfileID,
			ThreadID:    threadID,
			MessageID:   msg.ID,
			CreatedAt:   msg.CreatedAt,
		})
	}
	return msg, nil
}

// publish is fire-and-forget: broadcast failures never fail the write that
// produced them.
func (s *Service) publish(ctx context.Context, ev notify.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warnw("broadcast failed", "kind", ev.Kind, "err", err)
	}
}
