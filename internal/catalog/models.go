package catalog

import (
	"math"
	"time"
)

type Product struct {
	ID            int64     `json:"product_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"product_name"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProductInput carries the mutable product fields for create and update.
type ProductInput struct {
	SKU           string
	Name          string
	Price         float64
	StockQuantity int
	// CreatedAt is honoured on create only; zero means now.
	CreatedAt time.Time
}

type Page struct {
	Limit  int
	Offset int
}

// MaxQuantity is the largest stock or order quantity the INTEGER columns hold.
const MaxQuantity = math.MaxInt32

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Normalize clamps the page into the accepted range.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
