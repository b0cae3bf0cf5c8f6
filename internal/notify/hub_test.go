package notify

import (
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestHubRoutesToRecipientOnly(t *testing.T) {
	h := NewHub(zap.NewNop().Sugar())
	alice := uuid.New()
	bob := uuid.New()

	ca := h.Subscribe(alice)
	cb := h.Subscribe(bob)
	defer h.Unsubscribe(ca)
	defer h.Unsubscribe(cb)

	h.Route(Event{Kind: EventNewMessage, RecipientID: alice})

	select {
	case ev := <-ca.Outbound:
		if ev.Kind != EventNewMessage {
			t.Fatalf("unexpected kind %q", ev.Kind)
		}
	default:
		t.Fatal("alice should have received the event")
	}

	select {
	case <-cb.Outbound:
		t.Fatal("bob must not receive alice's event")
	default:
	}
}

func TestHubDeliversToEverySessionOfUser(t *testing.T) {
	h := NewHub(zap.NewNop().Sugar())
	user := uuid.New()

	c1 := h.Subscribe(user)
	c2 := h.Subscribe(user)
	defer h.Unsubscribe(c1)
	defer h.Unsubscribe(c2)

	h.Route(Event{Kind: EventThreadMessage, RecipientID: user})

	for i, c := range []*Client{c1, c2} {
		select {
		case <-c.Outbound:
		default:
			t.Fatalf("session %d did not receive the event", i)
		}
	}
}

func TestHubDropsOnFullBuffer(t *testing.T) {
	h := NewHub(zap.NewNop().Sugar())
	user := uuid.New()

	c := h.Subscribe(user)
	defer h.Unsubscribe(c)

	// fill the buffer and push one more; Route must not block
	for i := 0; i < cap(c.Outbound)+1; i++ {
		h.Route(Event{Kind: EventNewMessage, RecipientID: user})
	}

	if got := len(c.Outbound); got != cap(c.Outbound) {
		t.Fatalf("buffer should be full, got %d of %d", got, cap(c.Outbound))
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h := NewHub(zap.NewNop().Sugar())
	user := uuid.New()

	c := h.Subscribe(user)
	if h.ConnectedUsers() != 1 {
		t.Fatal("user should be connected")
	}
	h.Unsubscribe(c)
	if h.ConnectedUsers() != 0 {
		t.Fatal("user should be gone after unsubscribe")
	}

	select {
	case <-c.Done():
	default:
		t.Fatal("client done channel should be closed")
	}

	// routing to a gone user is a no-op
	h.Route(Event{Kind: EventNewMessage, RecipientID: user})
}
