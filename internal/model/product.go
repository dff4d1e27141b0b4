package model

import "time"

// ProductStatus values. Inactive products stay in the store but are
// excluded from listings and resolution.
const (
	ProductActive   = "active"
	ProductInactive = "inactive"
)

// Product represents a catalogue item owned by a business.
type Product struct {
	ID          string    `json:"id" db:"id"`
	BusinessID  string    `json:"business_id" db:"business_id"`
	Name        string    `json:"name" db:"name"`
	Price       float64   `json:"price" db:"price"`
	Stock       int       `json:"stock" db:"stock"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	Brand       string    `json:"brand" db:"brand"`
	Warranty    string    `json:"warranty" db:"warranty"`
	SKU         string    `json:"sku" db:"sku"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProductSummary is the slimmed-down shape surfaced in disambiguation
// context so a caller can present alternatives without re-querying.
type ProductSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Category string  `json:"category"`
	Brand    string  `json:"brand"`
}

// Summary converts a product to its disambiguation-context shape.
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		Category: p.Category,
		Brand:    p.Brand,
	}
}
