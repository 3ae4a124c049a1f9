package catalog

import "errors"

const (
	FailureReasonNotFound          = "not_found"
	FailureReasonInsufficientStock = "insufficient_stock"
	FailureReasonPersistenceError  = "persist_error"
)

// FailureReason maps a stock operation error to a low-cardinality reason label.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return FailureReasonNotFound
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrInvalidQuantity):
		return FailureReasonInsufficientStock
	default:
		return FailureReasonPersistenceError
	}
}
