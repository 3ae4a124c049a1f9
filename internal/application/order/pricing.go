package order

import (
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/shopspring/decimal"
)

// PricingConfig holds the tax and shipping rules applied to every order.
type PricingConfig struct {
	TaxRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

func DefaultPricing() PricingConfig {
	return PricingConfig{
		TaxRate:               decimal.RequireFromString("0.18"),
		ShippingFee:           decimal.NewFromInt(49),
		FreeShippingThreshold: decimal.NewFromInt(750),
	}
}

// PricedLine is a line item plus the quantity the buyer asked for.
type PricedLine struct {
	domain.LineItem
	Requested int
}

// Reduced reports whether stock capped the line below what was requested.
func (l PricedLine) Reduced() bool { return l.Quantity < l.Requested }

type Quote struct {
	Lines  []PricedLine
	Totals domain.Totals
}

func (q *Quote) Items() []domain.LineItem {
	items := make([]domain.LineItem, len(q.Lines))
	for i, l := range q.Lines {
		items[i] = l.LineItem
	}
	return items
}

// MergeLines folds lines that reference the same product into one, summing
// quantities and keeping first-seen order.
func MergeLines(lines []CartLine) []CartLine {
	index := make(map[string]int, len(lines))
	merged := make([]CartLine, 0, len(lines))
	for _, l := range lines {
		if i, ok := index[l.ProductID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged
}

func productIDs(lines []CartLine) []string {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	return ids
}

// Price resolves merged cart lines against product snapshots fetched in one
// batch. It either prices every line or fails without side effects.
func Price(lines []CartLine, products []catalog.Product, cfg PricingConfig) (*Quote, error) {
	byID := make(map[string]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	found := 0
	for _, l := range lines {
		if _, ok := byID[l.ProductID]; ok {
			found++
		}
	}
	if found != len(lines) {
		return nil, newValidation(CodeProductsNotFound)
	}

	priced := make([]PricedLine, 0, len(lines))
	lineTotals := make([]decimal.Decimal, 0, len(lines))
	for _, l := range lines {
		p := byID[l.ProductID]
		if !p.Available() {
			return nil, newDomain(CodeProductUnavailable, p.Name)
		}
		fulfilled := min(l.Quantity, p.Stock)
		if fulfilled <= 0 {
			return nil, newDomain(CodeInsufficientStock, p.Name)
		}
		total := domain.Round2(p.UnitPrice.Mul(decimal.NewFromInt(int64(fulfilled))))
		priced = append(priced, PricedLine{
			LineItem: domain.LineItem{
				ProductID: p.ID,
				Name:      p.Name,
				Image:     p.PrimaryImage(),
				UnitPrice: p.UnitPrice,
				Quantity:  fulfilled,
				LineTotal: total,
			},
			Requested: l.Quantity,
		})
		lineTotals = append(lineTotals, total)
	}

	return &Quote{Lines: priced, Totals: ComputeTotals(lineTotals, cfg)}, nil
}

// ComputeTotals rounds at every derived value so stored totals always equal
// the sum of their stored components.
func ComputeTotals(lineTotals []decimal.Decimal, cfg PricingConfig) domain.Totals {
	sub := decimal.Zero
	for _, t := range lineTotals {
		sub = sub.Add(t)
	}
	sub = domain.Round2(sub)

	tax := domain.Round2(sub.Mul(cfg.TaxRate))
	shipping := domain.Round2(cfg.ShippingFee)
	if sub.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return domain.Totals{
		SubTotal:    sub,
		TaxTotal:    tax,
		ShippingFee: shipping,
		GrandTotal:  domain.Round2(sub.Add(tax).Add(shipping)),
	}
}
