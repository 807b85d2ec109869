package enums

// OrderEvent names the lifecycle events pushed to subscribers. The literals
// are the wire-level event names.
type OrderEvent string

const (
	OrderEventPlaced    OrderEvent = "orderPlaced"
	OrderEventUpdated   OrderEvent = "orderUpdated"
	OrderEventCancelled OrderEvent = "orderCancelled"
)

// String implements fmt.Stringer.
func (e OrderEvent) String() string {
	return string(e)
}

// IsValid reports whether the value is a known OrderEvent.
func (e OrderEvent) IsValid() bool {
	switch e {
	case OrderEventPlaced, OrderEventUpdated, OrderEventCancelled:
		return true
	default:
		return false
	}
}
