package notifications

import (
	"context"
	"sync"

	"github.com/dperea/storefront-backend/pkg/db/models"
	"github.com/dperea/storefront-backend/pkg/enums"
	"github.com/dperea/storefront-backend/pkg/logger"
	"github.com/dperea/storefront-backend/pkg/metrics"
	"github.com/dperea/storefront-backend/pkg/oid"
)

const defaultSubscriberBuffer = 16

// Event is a single order lifecycle notification delivered to subscribers.
type Event struct {
	Name    enums.OrderEvent `json:"eventName"`
	Message string           `json:"message"`
	Order   *models.Order    `json:"order"`
}

// Subscription is one listener registered with the hub. Consumers read from
// Events and must call Unsubscribe when done.
type Subscription struct {
	id     uint64
	userID oid.ID
	role   enums.Role
	ch     chan Event
}

// Events returns the subscriber's delivery channel.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Publisher is the surface the order engine depends on.
type Publisher interface {
	Publish(event Event)
}

// Hub fans order events out to registered subscribers. Delivery is
// best-effort and at-most-once: a subscriber whose buffer is full misses the
// event rather than blocking the publishing request.
type Hub struct {
	mu      sync.Mutex
	subs    map[uint64]*Subscription
	nextID  uint64
	buffer  int
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
}

// NewHub builds a hub whose subscriber channels hold up to buffer events.
func NewHub(buffer int, m *metrics.OrderMetrics, logg *logger.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{
		subs:    make(map[uint64]*Subscription),
		buffer:  buffer,
		metrics: m,
		logg:    logg,
	}
}

// Subscribe registers a listener identified by user and role.
func (h *Hub) Subscribe(userID oid.ID, role enums.Role) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:     h.nextID,
		userID: userID,
		role:   role,
		ch:     make(chan Event, h.buffer),
	}
	h.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes the listener and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.ch)
}

// Publish delivers the event to every subscriber allowed to see it: the
// order's owner and any privileged role.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		if !h.visibleTo(sub, event) {
			continue
		}
		select {
		case sub.ch <- event:
			h.metrics.IncPublished(event.Name.String())
		default:
			h.metrics.IncDropped(event.Name.String())
			if h.logg != nil {
				ctx := h.logg.WithFields(context.Background(), map[string]any{
					"event":   event.Name.String(),
					"user_id": sub.userID.String(),
				})
				h.logg.Warn(ctx, "dropping order event for saturated subscriber")
			}
		}
	}
}

// SubscriberCount reports the current number of listeners.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) visibleTo(sub *Subscription, event Event) bool {
	if sub.role.IsPrivileged() {
		return true
	}
	return event.Order != nil && event.Order.UserID == sub.userID
}
