package notify

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivia/school-wellbeing-backend/internal/metrics"
)

// Client is one connected session. Outbound is buffered; a slow consumer
// loses events rather than blocking the hub — the periodic resync from
// persisted rows is the correctness backstop.
type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Outbound chan Event
	done     chan struct{}
	once     sync.Once
}

func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// Hub routes bus events to connected clients by recipient user id. One
// subscription per active session instead of one per conversation.
type Hub struct {
	mu      sync.RWMutex
	log     *zap.SugaredLogger
	byUser  map[uuid.UUID]map[*Client]bool
	bufSize int
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		log:     log.With("component", "hub"),
		byUser:  make(map[uuid.UUID]map[*Client]bool),
		bufSize: 16,
	}
}

func (h *Hub) Subscribe(userID uuid.UUID) *Client {
	c := &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan Event, h.bufSize),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.byUser[userID]
	if !ok {
		clients = make(map[*Client]bool)
		h.byUser[userID] = clients
	}
	clients[c] = true
	return c
}

func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.byUser[c.UserID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
	c.close()
}

// Route delivers an event to every session of the recipient. Non-blocking:
// full buffers drop the event and bump a counter.
func (h *Hub) Route(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byUser[ev.RecipientID] {
		select {
		case c.Outbound <- ev:
		default:
			metrics.BroadcastsDropped.Inc()
			h.log.Warnw("dropping event; client buffer full", "client", c.ID, "user", c.UserID)
		}
	}
}

// ConnectedUsers is used by tests and the ops endpoint.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser)
}
