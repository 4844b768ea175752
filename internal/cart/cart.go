package cart

import (
	"slices"

	"github.com/drstein77/istore/internal/models"
)

// Store holds the line items of one cart, keyed by product id and ordered by
// first add. Quantities stored are always >= 1.
type Store struct {
	order []int64
	items map[int64]*models.CartLineItem
}

func NewStore() *Store {
	return &Store{
		items: make(map[int64]*models.CartLineItem),
	}
}

// AddItem increments the quantity of an existing line item or appends a new
// one with quantity 1. The product is copied, so the line item keeps the
// price and description it had when first added.
func (s *Store) AddItem(p models.Product) {
	if item, ok := s.items[p.ID]; ok {
		item.Quantity++
		return
	}

	s.items[p.ID] = &models.CartLineItem{Product: p, Quantity: 1}
	s.order = append(s.order, p.ID)
}

// RemoveItem deletes the line item for productID. Unknown ids are ignored.
func (s *Store) RemoveItem(productID int64) {
	if _, ok := s.items[productID]; !ok {
		return
	}

	delete(s.items, productID)
	if i := slices.Index(s.order, productID); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

// SetQuantity sets the quantity of an existing line item in place. A quantity
// of zero or less removes the item; unknown ids are ignored.
func (s *Store) SetQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(productID)
		return
	}

	if item, ok := s.items[productID]; ok {
		item.Quantity = quantity
	}
}

// Quantity reports the quantity held for productID, 0 when absent.
func (s *Store) Quantity(productID int64) int {
	if item, ok := s.items[productID]; ok {
		return item.Quantity
	}
	return 0
}

func (s *Store) Len() int {
	return len(s.order)
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []models.CartLineItem {
	out := make([]models.CartLineItem, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.items[id])
	}
	return out
}

// TotalItemCount is the sum of all quantities.
func (s *Store) TotalItemCount() int {
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the sum of price * quantity over all line items.
func (s *Store) TotalPrice() int64 {
	var total int64
	for _, item := range s.items {
		total += ParsePrice(item.Price) * int64(item.Quantity)
	}
	return total
}
