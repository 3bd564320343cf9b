package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"

	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/logger"
)

// ErrInvalidEvent is returned by Publish for malformed events.
var ErrInvalidEvent = errors.New("invalid feed event")

// Subscription is one live listener. Events arrive on C until Close is
// called, the subscribe context ends, or the listener falls behind.
type Subscription struct {
	ID    string
	Owner string
	C     <-chan domain.Event

	ch       chan domain.Event
	hub      *Hub
	done     chan struct{}
	once     sync.Once
	overflow atomic.Bool
}

// Close stops delivery and closes C. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Overflowed reports whether the subscription was dropped for being too slow.
func (s *Subscription) Overflowed() bool {
	return s.overflow.Load()
}

// Hub is the in-process fan-out. Used alone it is a single-node Broker;
// RedisBroker feeds it with events from every node.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[string]*Subscription // owner -> ID -> Subscription
	buffer int
	log    logger.Logger
}

var _ Broker = (*Hub)(nil)

// NewHub creates a hub whose subscribers buffer up to buffer events.
func NewHub(buffer int, log logger.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[string]map[string]*Subscription),
		buffer: buffer,
		log:    log,
	}
}

// Subscribe registers a listener for owner. The subscription is closed
// automatically when ctx ends.
func (h *Hub) Subscribe(ctx context.Context, owner string) (*Subscription, error) {
	if owner == "" {
		return nil, domain.ErrOwnerRequired
	}

	ch := make(chan domain.Event, h.buffer)
	sub := &Subscription{
		ID:    ulid.Make().String(),
		Owner: owner,
		C:     ch,
		ch:    ch,
		hub:   h,
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	owned, ok := h.subs[owner]
	if !ok {
		owned = make(map[string]*Subscription)
		h.subs[owner] = owned
	}
	owned[sub.ID] = sub
	h.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	h.log.Debug("feed subscriber added", logger.String("owner", owner), logger.String("id", sub.ID))
	return sub, nil
}

// Publish delivers ev to local subscribers.
func (h *Hub) Publish(_ context.Context, ev domain.Event) error {
	if !ev.Valid() {
		return ErrInvalidEvent
	}
	h.Deliver(ev)
	return nil
}

// Deliver hands ev to every subscriber of ev.OwnerID without blocking.
// A subscriber whose buffer is full is dropped, its client reloads on
// reconnect.
func (h *Hub) Deliver(ev domain.Event) {
	var slow []*Subscription

	h.mu.RLock()
	for _, sub := range h.subs[ev.OwnerID] {
		select {
		case sub.ch <- ev:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		sub.overflow.Store(true)
		h.log.Warn("feed subscriber too slow, dropping",
			logger.String("owner", sub.Owner),
			logger.String("id", sub.ID),
		)
		sub.Close()
	}
}

// Count returns the number of live subscriptions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, owned := range h.subs {
		n += len(owned)
	}
	return n
}

func (h *Hub) remove(sub *Subscription) {
	sub.once.Do(func() {
		h.mu.Lock()
		if owned, ok := h.subs[sub.Owner]; ok {
			delete(owned, sub.ID)
			if len(owned) == 0 {
				delete(h.subs, sub.Owner)
			}
		}
		// Deliver sends under the read lock, closing under the write lock
		// guarantees no send on a closed channel
		close(sub.ch)
		h.mu.Unlock()
		close(sub.done)
	})
}
