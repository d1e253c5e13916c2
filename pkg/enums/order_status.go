package enums

import "fmt"

// OrderStatus tracks delivery progress for a materialized order.
type OrderStatus string

const (
	OrderStatusPendingDelivery OrderStatus = "pending_delivery"
	OrderStatusDelivered       OrderStatus = "delivered"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendingDelivery,
	OrderStatusDelivered,
}

// orderTransitions is the explicit transition table. Delivered is terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingDelivery: {OrderStatusDelivered},
	OrderStatusDelivered:       {},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the transition table allows moving to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
