package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeUnreadStore struct {
	counts    map[uuid.UUID]int
	upserts   int
	upsertErr error
}

func (f *fakeUnreadStore) UnreadCounts(_ context.Context, _ uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(f.counts))
	for k, v := range f.counts {
		out[k] = v
	}
	return out, nil
}

func (f *fakeUnreadStore) UpsertMessageRead(_ context.Context, convID, _ uuid.UUID, _ time.Time) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	delete(f.counts, convID)
	return nil
}

func TestUnreadTrackerResyncIsAuthoritative(t *testing.T) {
	user := uuid.New()
	conv := uuid.New()
	store := &fakeUnreadStore{counts: map[uuid.UUID]int{conv: 4}}
	tr := NewUnreadTracker(store, user)

	// drift the local state away from persisted truth
	tr.Apply(Event{Kind: EventNewMessage, RecipientID: user, SenderID: uuid.New(), ConversationID: conv})

	if err := tr.Resync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := tr.Count(conv); got != 4 {
		t.Fatalf("resync must replace local counts, got %d", got)
	}
}

func TestUnreadTrackerApply(t *testing.T) {
	user := uuid.New()
	conv := uuid.New()
	tr := NewUnreadTracker(&fakeUnreadStore{}, user)

	t.Run("increments_on_incoming_message", func(t *testing.T) {
		tr.Apply(Event{Kind: EventNewMessage, RecipientID: user, SenderID: uuid.New(), ConversationID: conv})
		if tr.Count(conv) != 1 {
			t.Fatalf("expected 1, got %d", tr.Count(conv))
		}
	})

	t.Run("ignores_own_messages", func(t *testing.T) {
		tr.Apply(Event{Kind: EventNewMessage, RecipientID: user, SenderID: user, ConversationID: conv})
		if tr.Count(conv) != 1 {
			t.Fatalf("own message must not count, got %d", tr.Count(conv))
		}
	})

	t.Run("ignores_non_message_events", func(t *testing.T) {
		tr.Apply(Event{Kind: EventThreadTransition, RecipientID: user, SenderID: uuid.New(), ConversationID: conv})
		if tr.Count(conv) != 1 {
			t.Fatalf("transition event must not count, got %d", tr.Count(conv))
		}
	})
}

func TestUnreadTrackerMarkReadThenResyncIsZero(t *testing.T) {
	user := uuid.New()
	conv := uuid.New()
	store := &fakeUnreadStore{counts: map[uuid.UUID]int{conv: 7}}
	tr := NewUnreadTracker(store, user)

	if err := tr.Resync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := tr.MarkRead(context.Background(), conv); err != nil {
		t.Fatal(err)
	}
	if tr.Count(conv) != 0 {
		t.Fatal("count must be zero right after mark-read")
	}

	// the persisted cursor moved too, so the next resync stays at zero
	if err := tr.Resync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tr.Count(conv) != 0 {
		t.Fatalf("resync after mark-read must stay zero, got %d", tr.Count(conv))
	}
	if store.upserts != 1 {
		t.Fatalf("expected one cursor upsert, got %d", store.upserts)
	}
}

func TestUnreadTrackerMarkReadOptimisticOnStoreFailure(t *testing.T) {
	user := uuid.New()
	conv := uuid.New()
	store := &fakeUnreadStore{counts: map[uuid.UUID]int{conv: 2}, upsertErr: errors.New("db down")}
	tr := NewUnreadTracker(store, user)

	if err := tr.Resync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := tr.MarkRead(context.Background(), conv); err == nil {
		t.Fatal("expected the store error to propagate")
	}
	// local zero stands until the next resync re-derives truth
	if tr.Count(conv) != 0 {
		t.Fatalf("local count must be optimistically zero, got %d", tr.Count(conv))
	}

	if err := tr.Resync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tr.Count(conv) != 2 {
		t.Fatalf("resync must restore persisted truth, got %d", tr.Count(conv))
	}
}

func TestUnreadTrackerTotals(t *testing.T) {
	user := uuid.New()
	a, b := uuid.New(), uuid.New()
	store := &fakeUnreadStore{counts: map[uuid.UUID]int{a: 2, b: 3}}
	tr := NewUnreadTracker(store, user)

	if err := tr.Resync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tr.TotalUnread() != 5 {
		t.Fatalf("expected total 5, got %d", tr.TotalUnread())
	}
	counts := tr.Counts()
	if counts[a] != 2 || counts[b] != 3 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
