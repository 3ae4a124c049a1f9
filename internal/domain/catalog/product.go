package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
)

// Product is the catalog view the order pipeline reads. Only the product
// store mutates Stock, OrdersCount and IsActive.
type Product struct {
	ID          string
	Name        string
	UnitPrice   decimal.Decimal
	Images      []string
	Stock       int
	OrdersCount int
	IsActive    bool
	UpdatedAt   time.Time
}

// PrimaryImage returns the first image, or "" when the product has none.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Available reports whether the product can be sold at all.
func (p *Product) Available() bool {
	return p.IsActive && p.Stock > 0
}

// Depleted reports whether the product still needs to be taken off sale.
func (p *Product) Depleted() bool {
	return p.IsActive && p.Stock <= 0
}

// Deduct applies a stock decrement in place. It refuses to take stock below zero.
func (p *Product) Deduct(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > p.Stock {
		return ErrInsufficientStock
	}
	p.Stock -= quantity
	p.OrdersCount += quantity
	p.touch()
	return nil
}

func (p *Product) Deactivate() {
	p.IsActive = false
	p.touch()
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Images = append([]string(nil), p.Images...)
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
