package order

import "context"

type Repository interface {
	Create(ctx context.Context, order *Order) error
	// FindByCustomer returns the customer's orders, newest first.
	FindByCustomer(ctx context.Context, customerID string) ([]*Order, error)
	// FindByStatus returns up to limit orders in the given status, oldest first.
	// Orders held for reconciliation are left out.
	FindByStatus(ctx context.Context, status Status, limit int) ([]*Order, error)
	// UpdateStatus moves an order from one status to another, failing with
	// ErrStatusConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to Status) error
	// HoldForReconciliation sets ReservationIncomplete on a stored order.
	HoldForReconciliation(ctx context.Context, id string) error
}

type ReconciliationRepository interface {
	Record(ctx context.Context, entry ReconciliationEntry) error
	List(ctx context.Context, limit int) ([]ReconciliationEntry, error)
}
