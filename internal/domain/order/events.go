package order

import "time"

// ReservationIncompleteEvent is emitted when an order was persisted but stock
// for one of its lines could not be decremented. The order is left as-is.
type ReservationIncompleteEvent struct {
	OrderID    string
	ProductID  string
	Quantity   int
	Reason     string
	OccurredAt time.Time
}

func (ReservationIncompleteEvent) EventName() string { return "order.reservation_incomplete" }

func NewReservationIncompleteEvent(orderID, productID string, quantity int, reason string) ReservationIncompleteEvent {
	return ReservationIncompleteEvent{
		OrderID:    orderID,
		ProductID:  productID,
		Quantity:   quantity,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}
