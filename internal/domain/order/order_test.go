package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func line(price string, qty int) LineItem {
	p := decimal.RequireFromString(price)
	return LineItem{
		ProductID: "p1",
		Name:      "Kibble",
		UnitPrice: p,
		Quantity:  qty,
		LineTotal: Round2(p.Mul(decimal.NewFromInt(int64(qty)))),
	}
}

func totals(sub, tax, ship, grand string) Totals {
	return Totals{
		SubTotal:    decimal.RequireFromString(sub),
		TaxTotal:    decimal.RequireFromString(tax),
		ShippingFee: decimal.RequireFromString(ship),
		GrandTotal:  decimal.RequireFromString(grand),
	}
}

func TestNew_BuildsPreparingOrder(t *testing.T) {
	o, err := New("o-1", Buyer{CustomerID: "c-1"}, []LineItem{line("100.00", 3)},
		totals("300.00", "54.00", "49.00", "403.00"), ShippingAddress{FullName: "Ada"}, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, StatusPreparing, o.Status)
	assert.Equal(t, fixedNow.Add(5*24*time.Hour), o.EstimatedDeliveryDate)
	assert.Equal(t, fixedNow, o.CreatedAt)
}

func TestNew_RejectsBrokenInvariants(t *testing.T) {
	good := []LineItem{line("100.00", 3)}
	goodTotals := totals("300.00", "54.00", "49.00", "403.00")

	tests := []struct {
		name   string
		buyer  Buyer
		items  []LineItem
		totals Totals
		want   error
	}{
		{"no items", Buyer{CustomerID: "c"}, nil, goodTotals, ErrEmptyItems},
		{"no buyer", Buyer{}, good, goodTotals, ErrBuyerIdentity},
		{"both buyers", Buyer{CustomerID: "c", GuestEmail: "g@x.io"}, good, goodTotals, ErrBuyerIdentity},
		{"subtotal drift", Buyer{CustomerID: "c"}, good, totals("300.01", "54.00", "49.00", "403.01"), ErrTotalsMismatch},
		{"grand total drift", Buyer{CustomerID: "c"}, good, totals("300.00", "54.00", "49.00", "403.10"), ErrTotalsMismatch},
		{"zero quantity", Buyer{CustomerID: "c"}, []LineItem{{UnitPrice: decimal.NewFromInt(1)}}, totals("0", "0", "0", "0"), ErrInvalidQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("o", tt.buyer, tt.items, tt.totals, ShippingAddress{}, fixedNow)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRound2_HalfUp(t *testing.T) {
	assert.Equal(t, "0.13", Round2(decimal.RequireFromString("0.125")).StringFixed(2))
	assert.Equal(t, "0.12", Round2(decimal.RequireFromString("0.1249")).StringFixed(2))
}

func TestTransitions(t *testing.T) {
	o, err := New("o-1", Buyer{GuestEmail: "g@x.io"}, []LineItem{line("10.00", 1)},
		totals("10.00", "1.80", "49.00", "60.80"), ShippingAddress{}, fixedNow)
	require.NoError(t, err)

	require.NoError(t, o.Advance(fixedNow))
	assert.Equal(t, StatusShipped, o.Status)
	require.NoError(t, o.Advance(fixedNow))
	assert.Equal(t, StatusDelivered, o.Status)
	assert.True(t, o.Status.Terminal())

	assert.ErrorIs(t, o.Advance(fixedNow), ErrInvalidStateTransition)
	assert.ErrorIs(t, o.Cancel(fixedNow), ErrInvalidStateTransition)
}

func TestCancelFromPreparing(t *testing.T) {
	o := &Order{Status: StatusPreparing}
	require.NoError(t, o.Cancel(fixedNow))
	assert.Equal(t, StatusCancelled, o.Status)
	assert.ErrorIs(t, o.Ship(fixedNow), ErrInvalidStateTransition)
}

func TestHeldOrderCannotShip(t *testing.T) {
	o := &Order{Status: StatusPreparing}
	later := fixedNow.Add(time.Minute)
	o.HoldForReconciliation(later)

	assert.True(t, o.ReservationIncomplete)
	assert.Equal(t, later, o.UpdatedAt)
	assert.ErrorIs(t, o.Advance(fixedNow), ErrReservationHold)
	assert.Equal(t, StatusPreparing, o.Status)

	require.NoError(t, o.Cancel(fixedNow))
	assert.Equal(t, StatusCancelled, o.Status)
}
