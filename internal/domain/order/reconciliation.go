package order

import "time"

// ReconciliationEntry records a persisted order line whose stock was never taken.
type ReconciliationEntry struct {
	ID         string
	OrderID    string
	ProductID  string
	Quantity   int
	Reason     string
	RecordedAt time.Time
}

func NewReconciliationEntry(id string, e ReservationIncompleteEvent, now time.Time) ReconciliationEntry {
	return ReconciliationEntry{
		ID:         id,
		OrderID:    e.OrderID,
		ProductID:  e.ProductID,
		Quantity:   e.Quantity,
		Reason:     e.Reason,
		RecordedAt: now.UTC(),
	}
}
