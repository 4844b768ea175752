package catalog

import (
	"strings"

	"github.com/drstein77/istore/internal/models"
)

// Filter holds the active category selector over a fixed product list.
type Filter struct {
	products []models.Product
	category string
}

// NewFilter creates a filter over the compiled-in catalog with the "all"
// selector.
func NewFilter() *Filter {
	return NewFilterOver(products)
}

// NewFilterOver creates a filter over the given products. The slice is
// copied so later changes by the caller are not observed.
func NewFilterOver(list []models.Product) *Filter {
	own := make([]models.Product, len(list))
	copy(own, list)
	return &Filter{
		products: own,
		category: models.CategoryAll,
	}
}

// SetCategory replaces the selector. Unknown values are accepted and simply
// match nothing.
func (f *Filter) SetCategory(category string) {
	f.category = category
}

func (f *Filter) Category() string {
	return f.category
}

// VisibleProducts returns the products matching the selector in catalog order.
func (f *Filter) VisibleProducts() []models.Product {
	if f.category == models.CategoryAll {
		out := make([]models.Product, len(f.products))
		copy(out, f.products)
		return out
	}

	out := make([]models.Product, 0, len(f.products))
	for _, p := range f.products {
		if strings.EqualFold(p.Category, f.category) {
			out = append(out, p)
		}
	}
	return out
}
