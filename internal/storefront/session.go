package storefront

import (
	"errors"
	"sync"

	"github.com/drstein77/istore/internal/cart"
	"github.com/drstein77/istore/internal/catalog"
	"github.com/drstein77/istore/internal/models"
)

var ErrUnknownProduct = errors.New("product is not in the catalog")

// Session owns the category selector and the cart of one shopper. Each intent
// runs under the session lock and returns the snapshot taken right after it.
type Session struct {
	mx     sync.Mutex
	filter *catalog.Filter
	cart   *cart.Store
}

func NewSession() *Session {
	return &Session{
		filter: catalog.NewFilter(),
		cart:   cart.NewStore(),
	}
}

func (s *Session) Snapshot() models.Snapshot {
	s.mx.Lock()
	defer s.mx.Unlock()

	return s.snapshot()
}

func (s *Session) SelectCategory(category string) models.Snapshot {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.filter.SetCategory(category)
	return s.snapshot()
}

// Categories lists the selectable categories together with the active one.
func (s *Session) Categories() models.CategoryList {
	s.mx.Lock()
	defer s.mx.Unlock()

	return models.CategoryList{
		Categories: catalog.Categories(),
		Selected:   s.filter.Category(),
	}
}

// AddToCart adds one unit of a catalog product. Ids outside the catalog
// return ErrUnknownProduct and leave the cart untouched.
func (s *Session) AddToCart(productID int64) (models.Snapshot, error) {
	p, ok := catalog.Lookup(productID)

	s.mx.Lock()
	defer s.mx.Unlock()

	if !ok {
		return s.snapshot(), ErrUnknownProduct
	}
	s.cart.AddItem(p)
	return s.snapshot(), nil
}

func (s *Session) IncrementQuantity(productID int64) models.Snapshot {
	return s.step(productID, 1)
}

// DecrementQuantity lowers the quantity by one; at quantity 1 the line item
// is removed.
func (s *Session) DecrementQuantity(productID int64) models.Snapshot {
	return s.step(productID, -1)
}

func (s *Session) SetQuantity(productID int64, quantity int) models.Snapshot {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.cart.SetQuantity(productID, quantity)
	return s.snapshot()
}

func (s *Session) RemoveFromCart(productID int64) models.Snapshot {
	s.mx.Lock()
	defer s.mx.Unlock()

	s.cart.RemoveItem(productID)
	return s.snapshot()
}

func (s *Session) step(productID int64, delta int) models.Snapshot {
	s.mx.Lock()
	defer s.mx.Unlock()

	if q := s.cart.Quantity(productID); q > 0 {
		s.cart.SetQuantity(productID, q+delta)
	}
	return s.snapshot()
}

func (s *Session) snapshot() models.Snapshot {
	return models.Snapshot{
		Category:        s.filter.Category(),
		VisibleProducts: s.filter.VisibleProducts(),
		CartLineItems:   s.cart.Items(),
		TotalItemCount:  s.cart.TotalItemCount(),
		TotalPrice:      s.cart.TotalPrice(),
	}
}
