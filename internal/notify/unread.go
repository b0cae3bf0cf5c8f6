package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UnreadStore is the persisted side of unread tracking.
type UnreadStore interface {
	UnreadCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
	UpsertMessageRead(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error
}

// UnreadTracker keeps a per-session map conversation -> unread count.
//
// Two-tier consistency: Resync recomputes the authoritative counts from
// persisted rows (connect, reconnect, interval); Apply consumes best-effort
// broadcasts in between. A missed broadcast undercounts until the next
// resync — accepted, the push path is only a latency optimization.
type UnreadTracker struct {
	mu     sync.Mutex
	userID uuid.UUID
	counts map[uuid.UUID]int
	store  UnreadStore
	now    func() time.Time
}

func NewUnreadTracker(store UnreadStore, userID uuid.UUID) *UnreadTracker {
	return &UnreadTracker{
		userID: userID,
		counts: make(map[uuid.UUID]int),
		store:  store,
		now:    time.Now,
	}
}

// Resync replaces the in-memory counters with the authoritative counts.
func (t *UnreadTracker) Resync(ctx context.Context) error {
	counts, err := t.store.UnreadCounts(ctx, t.userID)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.counts = counts
	t.mu.Unlock()
	return nil
}

// Apply consumes a broadcast event: a new message from someone else
// increments the conversation's counter by one.
func (t *UnreadTracker) Apply(ev Event) {
	if ev.Kind != EventNewMessage || ev.SenderID == t.userID || ev.ConversationID == uuid.Nil {
		return
	}
	t.mu.Lock()
	t.counts[ev.ConversationID]++
	t.mu.Unlock()
}

// MarkRead zeroes the counter optimistically, ahead of persistence
// confirmation, then moves the read cursor. On persistence failure the local
// zero stands until the next resync re-derives truth.
func (t *UnreadTracker) MarkRead(ctx context.Context, conversationID uuid.UUID) error {
	t.mu.Lock()
	t.counts[conversationID] = 0
	t.mu.Unlock()
	return t.store.UpsertMessageRead(ctx, conversationID, t.userID, t.now())
}

func (t *UnreadTracker) Count(conversationID uuid.UUID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[conversationID]
}

func (t *UnreadTracker) Counts() map[uuid.UUID]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[uuid.UUID]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// TotalUnread sums all counters; used for the badge in the client header.
func (t *UnreadTracker) TotalUnread() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}
