package eventservice

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/caldog20/tempnet/server/internal/peer"
)

type EventType string

const (
	PeerCreated     EventType = "peer.created"
	PeerEvicted     EventType = "peer.evicted"
	PeerEvictFailed EventType = "peer.evict_failed"
)

const subscriberBuffer = 32

type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	PublicKey string    `json:"public_key"`
	Address   string    `json:"address"`
	ExpiresAt time.Time `json:"expires_at"`
	Cause     string    `json:"cause,omitempty"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// Hub fans lifecycle events out to subscribers. Slow subscribers lose
// events rather than block the publisher.
type Hub struct {
	mu      sync.Mutex
	nextID  uint64
	subs    map[uint64]chan Event
	closed  bool
	clock   clock.Clock
	logger  *slog.Logger
	dropped uint64
}

type Option func(*Hub)

func WithClock(c clock.Clock) Option {
	return func(h *Hub) {
		h.clock = c
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = l
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[uint64]chan Event),
		clock:  clock.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a new subscriber. The returned channel is closed by
// Unsubscribe or Close.
func (h *Hub) Subscribe() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := make(chan Event, subscriberBuffer)
	if h.closed {
		close(c)
		return 0, c
	}
	h.nextID++
	h.subs[h.nextID] = c
	return h.nextID, c
}

func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.subs[id]; ok {
		close(c)
		delete(h.subs, id)
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped reports how many deliveries were skipped because a subscriber
// buffer was full.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.subs {
		select {
		case c <- e:
		default:
			h.dropped++
			h.logger.Debug("dropping event for slow subscriber", "subscriber", id, "type", e.Type)
		}
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.subs {
		close(c)
		delete(h.subs, id)
	}
}

func (h *Hub) newEvent(t EventType, p peer.Peer) Event {
	return Event{
		ID:        uuid.New(),
		Type:      t,
		PublicKey: p.PublicKey.EncodeToString(),
		Address:   p.Address.String(),
		ExpiresAt: p.ExpiresAt,
		At:        h.clock.Now(),
	}
}

func (h *Hub) PeerCreated(p peer.Peer) {
	h.Publish(h.newEvent(PeerCreated, p))
}

func (h *Hub) PeerEvicted(p peer.Peer, cause string) {
	e := h.newEvent(PeerEvicted, p)
	e.Cause = cause
	h.Publish(e)
}

func (h *Hub) PeerEvictFailed(p peer.Peer, err error) {
	e := h.newEvent(PeerEvictFailed, p)
	if err != nil {
		e.Error = err.Error()
	}
	h.Publish(e)
}
