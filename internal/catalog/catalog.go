package catalog

import (
	"strings"

	"github.com/drstein77/istore/internal/models"
)

const imageBase = "https://cdn.poehali.dev/projects/f467f675-d567-42fd-8c0c-1be8819acdc5/files/"

// products is the compiled-in catalog. Ids are unique and the slice is never
// mutated after init; callers only ever receive copies.
var products = []models.Product{
	{
		ID:          1,
		Name:        "iPhone 15 Pro",
		Category:    "iPhone",
		Price:       "999",
		Image:       imageBase + "db6bd838-9121-4e05-aeb6-4a92633829ed.jpg",
		Description: "Titanium design. A17 Pro chip. Action button.",
	},
	{
		ID:          2,
		Name:        "MacBook Pro M3",
		Category:    "Mac",
		Price:       "1999",
		Image:       imageBase + "f6276020-c350-4a3a-80b6-9d7cab0bfa1c.jpg",
		Description: "Incredible performance. Liquid Retina XDR display.",
	},
	{
		ID:          3,
		Name:        "iPad Pro",
		Category:    "iPad",
		Price:       "799",
		Image:       imageBase + "855407fa-ff2b-43a6-a2bd-883aeebc7830.jpg",
		Description: "M2 chip. ProMotion display. Apple Pencil support.",
	},
}

// Products returns the catalog in declaration order.
func Products() []models.Product {
	out := make([]models.Product, len(products))
	copy(out, products)
	return out
}

// Lookup finds a catalog product by id.
func Lookup(id int64) (models.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// Categories lists the selectors a client can offer: "all" followed by each
// distinct product category, lower-cased, in catalog order.
func Categories() []string {
	out := []string{models.CategoryAll}
	seen := make(map[string]struct{})
	for _, p := range products {
		c := strings.ToLower(p.Category)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
