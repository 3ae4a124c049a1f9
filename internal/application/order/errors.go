package order

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure by who can fix it.
type Kind string

const (
	// KindValidation is malformed input, detected before any store is touched.
	KindValidation Kind = "validation"
	// KindDomain is well-formed input that breaks a rule against live catalog data.
	KindDomain Kind = "domain"
	// KindStore is an unexpected data store failure.
	KindStore Kind = "store"
)

const (
	CodeEmptyCart          = "empty-cart"
	CodeMissingIdentity    = "missing-identity"
	CodeMissingProductRef  = "missing-product-ref"
	CodeProductsNotFound   = "products-not-found"
	CodeProductUnavailable = "product-unavailable"
	CodeInsufficientStock  = "insufficient-stock"
	CodeStoreFailure       = "store-failure"
)

// Error is returned by the order use cases for every failure the caller should see.
type Error struct {
	Kind    Kind
	Code    string
	Product string // offending product name, when known
	OrderID string // set when the order was persisted before the failure
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("order: %s: %s", e.Kind, e.Code)
	if e.Product != "" {
		msg += " (" + e.Product + ")"
	}
	if e.OrderID != "" {
		msg += " order=" + e.OrderID
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func newValidation(code string) *Error {
	return &Error{Kind: KindValidation, Code: code}
}

func newDomain(code, product string) *Error {
	return &Error{Kind: KindDomain, Code: code, Product: product}
}

func newStore(op string, err error) *Error {
	return &Error{Kind: KindStore, Code: CodeStoreFailure, Err: fmt.Errorf("%s: %w", op, err)}
}

// AsError extracts the pipeline error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries a pipeline error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

// HasCode reports whether err carries a pipeline error with the given code.
func HasCode(err error, code string) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}
