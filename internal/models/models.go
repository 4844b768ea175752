package models

// CategoryAll is the filter selector that matches every product.
const CategoryAll = "all"

// Product is an immutable catalog entry. Price holds whole currency units
// as a string of decimal digits.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

// CartLineItem is a product snapshot taken at add time plus its quantity.
type CartLineItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Snapshot is the read-only view of a session handed to clients.
type Snapshot struct {
	Category        string         `json:"category"`
	VisibleProducts []Product      `json:"visible_products"`
	CartLineItems   []CartLineItem `json:"cart_line_items"`
	TotalItemCount  int            `json:"total_item_count"`
	TotalPrice      int64          `json:"total_price"`
}

type CategoryList struct {
	Categories []string `json:"categories"`
	Selected   string   `json:"selected"`
}
