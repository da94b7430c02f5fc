package changefeed

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Action is the kind of row mutation an event describes.
type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Event notifies subscribers that the post collection changed. Consumers
// do not patch incrementally: any event means "refetch everything", so the
// payload only needs to identify the row for logging.
type Event struct {
	Action Action    `json:"action"`
	PostID uuid.UUID `json:"post_id"`
}

// Broker is the change-feed boundary: writers publish post events, feed
// views subscribe to them.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe() (*Subscription, error)
	Close() error
}

// Subscription is one listener's handle on the feed. Close is idempotent;
// the events channel is closed when the subscription is torn down.
type Subscription struct {
	events chan Event
	once   sync.Once
	hub    *hub
}

// Events returns the channel change events are delivered on.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close unregisters the subscription. Safe to call more than once;
// only the first call has effect.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// hub fans events out to the local subscriptions. Both broker
// implementations share it; they differ only in how events arrive.
type hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[*Subscription]struct{})}
}

func (h *hub) add() *Subscription {
	sub := &Subscription{
		// Buffered so a briefly busy consumer does not stall the fan-out.
		events: make(chan Event, 16),
		hub:    h,
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

func (h *hub) remove(sub *Subscription) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	if ok {
		delete(h.subs, sub)
	}
	h.mu.Unlock()

	if ok {
		close(sub.events)
	}
}

func (h *hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.events <- ev:
		default:
			// Consumer is not keeping up. Dropping is fine here: every
			// event triggers a full refetch, so the backlog already in
			// its buffer covers this change too.
			log.Warn().
				Str("action", string(ev.Action)).
				Str("post_id", ev.PostID.String()).
				Msg("change feed subscriber buffer full, event dropped")
		}
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
