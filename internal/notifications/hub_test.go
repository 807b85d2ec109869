package notifications

import (
	"testing"

	"github.com/dperea/storefront-backend/pkg/db/models"
	"github.com/dperea/storefront-backend/pkg/enums"
	"github.com/dperea/storefront-backend/pkg/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderFor(userID oid.ID) *models.Order {
	return &models.Order{ID: oid.New(), UserID: userID, Status: enums.OrderStatusPlaced}
}

func TestPublishDeliversToOwner(t *testing.T) {
	t.Parallel()

	hub := NewHub(4, nil, nil)
	owner := oid.New()
	sub := hub.Subscribe(owner, enums.RoleUser)
	defer hub.Unsubscribe(sub)

	event := Event{Name: enums.OrderEventPlaced, Message: "Order placed successfully", Order: orderFor(owner)}
	hub.Publish(event)

	select {
	case got := <-sub.Events():
		assert.Equal(t, enums.OrderEventPlaced, got.Name)
		assert.Equal(t, owner, got.Order.UserID)
	default:
		t.Fatal("expected delivered event")
	}
}

func TestPublishSkipsOtherUsers(t *testing.T) {
	t.Parallel()

	hub := NewHub(4, nil, nil)
	stranger := hub.Subscribe(oid.New(), enums.RoleUser)
	defer hub.Unsubscribe(stranger)

	hub.Publish(Event{Name: enums.OrderEventUpdated, Order: orderFor(oid.New())})

	select {
	case <-stranger.Events():
		t.Fatal("stranger must not receive another user's event")
	default:
	}
}

func TestPublishDeliversToPrivilegedRole(t *testing.T) {
	t.Parallel()

	hub := NewHub(4, nil, nil)
	admin := hub.Subscribe(oid.New(), enums.RoleSuperAdmin)
	defer hub.Unsubscribe(admin)

	hub.Publish(Event{Name: enums.OrderEventCancelled, Order: orderFor(oid.New())})

	select {
	case got := <-admin.Events():
		assert.Equal(t, enums.OrderEventCancelled, got.Name)
	default:
		t.Fatal("privileged subscriber should see every event")
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	t.Parallel()

	hub := NewHub(1, nil, nil)
	owner := oid.New()
	sub := hub.Subscribe(owner, enums.RoleUser)
	defer hub.Unsubscribe(sub)

	order := orderFor(owner)
	hub.Publish(Event{Name: enums.OrderEventPlaced, Order: order})
	hub.Publish(Event{Name: enums.OrderEventUpdated, Order: order})

	// only the first event fits; the second is dropped, never blocking
	require.Len(t, sub.Events(), 1)
	got := <-sub.Events()
	assert.Equal(t, enums.OrderEventPlaced, got.Name)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	hub := NewHub(4, nil, nil)
	sub := hub.Subscribe(oid.New(), enums.RoleUser)
	require.Equal(t, 1, hub.SubscriberCount())

	hub.Unsubscribe(sub)
	assert.Equal(t, 0, hub.SubscriberCount())

	_, open := <-sub.Events()
	assert.False(t, open)

	// double unsubscribe is harmless
	hub.Unsubscribe(sub)
}
