package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: already exists")
	ErrEmptyItems             = errors.New("order: at least one line item is required")
	ErrBuyerIdentity          = errors.New("order: exactly one of customer id or guest email is required")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrTotalsMismatch         = errors.New("order: totals do not add up")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
	ErrStatusConflict         = errors.New("order: status changed concurrently")
	ErrReservationHold        = errors.New("order: held until its stock reservation is reconciled")
)

// EstimatedDeliveryLead is how far after creation delivery is promised.
const EstimatedDeliveryLead = 5 * 24 * time.Hour

type Status string

const (
	StatusPreparing Status = "preparing"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Buyer identifies who placed the order: a signed-in customer or a guest.
type Buyer struct {
	CustomerID string
	GuestEmail string
}

func (b Buyer) valid() bool {
	return (b.CustomerID == "") != (b.GuestEmail == "")
}

// LineItem is a frozen price and quantity record. Quantity is the fulfilled quantity.
type LineItem struct {
	ProductID string
	Name      string
	Image     string
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

type ShippingAddress struct {
	FullName string
	City     string
	Address  string
}

type Totals struct {
	SubTotal    decimal.Decimal
	TaxTotal    decimal.Decimal
	ShippingFee decimal.Decimal
	GrandTotal  decimal.Decimal
}

type Order struct {
	ID                    string
	Buyer                 Buyer
	Items                 []LineItem
	Totals                Totals
	ShippingAddress       ShippingAddress
	Status                Status
	// ReservationIncomplete marks an order whose stock was not fully
	// reserved. It cannot ship until an operator reconciles it.
	ReservationIncomplete bool
	EstimatedDeliveryDate time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Round2 rounds half away from zero to two decimal places; for the
// non-negative amounts orders carry this is half-up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// New builds an order in the preparing state and rejects any combination of
// items and totals that does not add up exactly.
func New(id string, buyer Buyer, items []LineItem, totals Totals, address ShippingAddress, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	if !buyer.valid() {
		return nil, ErrBuyerIdentity
	}

	sum := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if !it.LineTotal.Equal(Round2(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))) {
			return nil, ErrTotalsMismatch
		}
		sum = sum.Add(it.LineTotal)
	}
	if !totals.SubTotal.Equal(Round2(sum)) {
		return nil, ErrTotalsMismatch
	}
	if !totals.GrandTotal.Equal(Round2(totals.SubTotal.Add(totals.TaxTotal).Add(totals.ShippingFee))) {
		return nil, ErrTotalsMismatch
	}

	now = now.UTC()
	return &Order{
		ID:                    id,
		Buyer:                 buyer,
		Items:                 append([]LineItem(nil), items...),
		Totals:                totals,
		ShippingAddress:       address,
		Status:                StatusPreparing,
		EstimatedDeliveryDate: now.Add(EstimatedDeliveryLead),
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// Clone returns a deep copy safe to hand out from in-memory stores.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	return &clone
}

// HoldForReconciliation flags the order as not fully reserved.
func (o *Order) HoldForReconciliation(now time.Time) {
	o.ReservationIncomplete = true
	o.touch(now)
}

func (o *Order) touch(now time.Time) {
	o.UpdatedAt = now.UTC()
}
