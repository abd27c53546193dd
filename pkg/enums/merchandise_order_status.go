package enums

import "fmt"

// MerchandiseOrderStatus tracks fulfillment of a merchandise order.
type MerchandiseOrderStatus string

const (
	MerchandiseOrderPending    MerchandiseOrderStatus = "pending"
	MerchandiseOrderProcessing MerchandiseOrderStatus = "processing"
	MerchandiseOrderShipped    MerchandiseOrderStatus = "shipped"
	MerchandiseOrderDelivered  MerchandiseOrderStatus = "delivered"
	MerchandiseOrderCancelled  MerchandiseOrderStatus = "cancelled"
)

var validMerchandiseOrderStatuses = []MerchandiseOrderStatus{
	MerchandiseOrderPending,
	MerchandiseOrderProcessing,
	MerchandiseOrderShipped,
	MerchandiseOrderDelivered,
	MerchandiseOrderCancelled,
}

// merchandiseOrderTransitions captures allowed forward moves; cancellation is
// handled separately because it restores stock.
var merchandiseOrderTransitions = map[MerchandiseOrderStatus][]MerchandiseOrderStatus{
	MerchandiseOrderPending:    {MerchandiseOrderProcessing, MerchandiseOrderCancelled},
	MerchandiseOrderProcessing: {MerchandiseOrderShipped, MerchandiseOrderCancelled},
	MerchandiseOrderShipped:    {MerchandiseOrderDelivered},
}

// String implements fmt.Stringer.
func (s MerchandiseOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known MerchandiseOrderStatus.
func (s MerchandiseOrderStatus) IsValid() bool {
	for _, candidate := range validMerchandiseOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the move from s to next is allowed.
func (s MerchandiseOrderStatus) CanTransitionTo(next MerchandiseOrderStatus) bool {
	for _, candidate := range merchandiseOrderTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseMerchandiseOrderStatus converts raw input into a MerchandiseOrderStatus.
func ParseMerchandiseOrderStatus(value string) (MerchandiseOrderStatus, error) {
	for _, candidate := range validMerchandiseOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid merchandise order status %q", value)
}
