package orders

import "github.com/dperea/storefront-backend/pkg/oid"

// ItemInput is one requested order line as submitted by the caller.
type ItemInput struct {
	ProductID string
	Quantity  int
}

// PlaceOrderInput captures everything needed to place a new order.
type PlaceOrderInput struct {
	UserID oid.ID
	Items  []ItemInput
}

// UpdateOrderItemsInput replaces an order's item set wholesale. Only the
// items are editable this way; status moves through its own operations.
type UpdateOrderItemsInput struct {
	OrderID oid.ID
	UserID  oid.ID
	Items   []ItemInput
}

// ChangeStatusInput moves an order to an explicit target status.
type ChangeStatusInput struct {
	OrderID oid.ID
	Status  string
}

// CancelOrderInput cancels an order on behalf of its owner.
type CancelOrderInput struct {
	OrderID oid.ID
	UserID  oid.ID
}
