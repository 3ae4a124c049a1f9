package memory

import (
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// DemoProducts is the catalog the memory backend starts with.
func DemoProducts() []domain.Product {
	return []domain.Product{
		{ID: "p1", Name: "Grain-Free Dog Food 2kg", UnitPrice: decimal.RequireFromString("100.00"), Images: []string{"/img/p1.jpg"}, Stock: 10, IsActive: true},
		{ID: "p2", Name: "Cat Scratching Post", UnitPrice: decimal.RequireFromString("249.90"), Images: []string{"/img/p2.jpg"}, Stock: 4, IsActive: true},
		{ID: "p3", Name: "Aquarium Filter", UnitPrice: decimal.RequireFromString("374.99"), Images: []string{"/img/p3.jpg"}, Stock: 2, IsActive: true},
		{ID: "p4", Name: "Bird Cage Deluxe", UnitPrice: decimal.RequireFromString("899.00"), Stock: 0, IsActive: false},
	}
}
