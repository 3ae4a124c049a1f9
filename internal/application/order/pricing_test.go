package order

import (
	"math/rand"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice_WorkedExample(t *testing.T) {
	quote, err := Price(
		[]CartLine{{ProductID: "P1", Quantity: 3}},
		[]catalog.Product{snapshot("P1", "100.00", 10)},
		DefaultPricing(),
	)
	require.NoError(t, err)

	require.Len(t, quote.Lines, 1)
	assert.Equal(t, 3, quote.Lines[0].Quantity)
	assert.Equal(t, "300.00", quote.Lines[0].LineTotal.StringFixed(2))
	assert.Equal(t, "P1.png", quote.Lines[0].Image)
	assert.False(t, quote.Lines[0].Reduced())

	assert.Equal(t, "300.00", quote.Totals.SubTotal.StringFixed(2))
	assert.Equal(t, "54.00", quote.Totals.TaxTotal.StringFixed(2))
	assert.Equal(t, "49.00", quote.Totals.ShippingFee.StringFixed(2))
	assert.Equal(t, "403.00", quote.Totals.GrandTotal.StringFixed(2))
}

func TestPrice_FreeShippingBoundary(t *testing.T) {
	below, err := Price([]CartLine{{ProductID: "a", Quantity: 1}}, []catalog.Product{snapshot("a", "749.99", 1)}, DefaultPricing())
	require.NoError(t, err)
	assert.Equal(t, "49.00", below.Totals.ShippingFee.StringFixed(2))

	at, err := Price([]CartLine{{ProductID: "a", Quantity: 1}}, []catalog.Product{snapshot("a", "750.00", 1)}, DefaultPricing())
	require.NoError(t, err)
	assert.True(t, at.Totals.ShippingFee.IsZero())
	assert.Equal(t, "885.00", at.Totals.GrandTotal.StringFixed(2))
}

func TestPrice_CapsToStock(t *testing.T) {
	quote, err := Price([]CartLine{{ProductID: "a", Quantity: 5}}, []catalog.Product{snapshot("a", "10.00", 2)}, DefaultPricing())
	require.NoError(t, err)

	assert.Equal(t, 2, quote.Lines[0].Quantity)
	assert.Equal(t, 5, quote.Lines[0].Requested)
	assert.True(t, quote.Lines[0].Reduced())
	assert.Equal(t, "20.00", quote.Lines[0].LineTotal.StringFixed(2))
}

func TestPrice_Rejections(t *testing.T) {
	inactive := snapshot("a", "10.00", 5)
	inactive.IsActive = false
	soldOut := snapshot("a", "10.00", 0)

	tests := []struct {
		name     string
		lines    []CartLine
		products []catalog.Product
		kind     Kind
		code     string
	}{
		{"missing product", []CartLine{{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 1}}, []catalog.Product{snapshot("a", "1", 1)}, KindValidation, CodeProductsNotFound},
		{"inactive", []CartLine{{ProductID: "a", Quantity: 1}}, []catalog.Product{inactive}, KindDomain, CodeProductUnavailable},
		{"sold out", []CartLine{{ProductID: "a", Quantity: 1}}, []catalog.Product{soldOut}, KindDomain, CodeProductUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Price(tt.lines, tt.products, DefaultPricing())
			require.Error(t, err)
			assert.True(t, IsKind(err, tt.kind))
			assert.True(t, HasCode(err, tt.code))
		})
	}

	_, err := Price([]CartLine{{ProductID: "a", Quantity: 1}}, []catalog.Product{inactive}, DefaultPricing())
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Product a", e.Product)
}

func TestMergeLines(t *testing.T) {
	merged := MergeLines([]CartLine{
		{ProductID: "b", Quantity: 1},
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 3},
	})
	assert.Equal(t, []CartLine{{ProductID: "b", Quantity: 4}, {ProductID: "a", Quantity: 2}}, merged)
}

func TestComputeTotals_RoundsEachComponent(t *testing.T) {
	// 1.005 rounds up to 1.01; tax on 1.01 is 0.1818, stored as 0.18
	totals := ComputeTotals([]decimal.Decimal{domain.Round2(money("1.005"))}, DefaultPricing())
	assert.Equal(t, "1.01", totals.SubTotal.StringFixed(2))
	assert.Equal(t, "0.18", totals.TaxTotal.StringFixed(2))
	assert.Equal(t, "50.19", totals.GrandTotal.StringFixed(2))
}

func TestPrice_TotalsIdentityHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	cfg := DefaultPricing()

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(5)
		lines := make([]CartLine, 0, n)
		products := make([]catalog.Product, 0, n)
		for j := 0; j < n; j++ {
			id := string(rune('a' + j))
			cents := 1 + rng.Int63n(50_000)
			products = append(products, catalog.Product{
				ID: id, Name: id, IsActive: true, Stock: 100,
				UnitPrice: decimal.New(cents, -2),
			})
			lines = append(lines, CartLine{ProductID: id, Quantity: 1 + rng.Intn(9)})
		}

		quote, err := Price(lines, products, cfg)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, l := range quote.Lines {
			assert.True(t, l.LineTotal.Equal(domain.Round2(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))))
			sum = sum.Add(l.LineTotal)
		}
		tt := quote.Totals
		assert.True(t, tt.SubTotal.Equal(domain.Round2(sum)))
		assert.True(t, tt.GrandTotal.Equal(domain.Round2(tt.SubTotal.Add(tt.TaxTotal).Add(tt.ShippingFee))))
		assert.Equal(t, tt.SubTotal.GreaterThanOrEqual(cfg.FreeShippingThreshold), tt.ShippingFee.IsZero())
	}
}
