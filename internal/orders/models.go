package orders

import "time"

type Order struct {
	ID        int64     `json:"order_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilter narrows ListOrders. Zero values mean "any".
type ListFilter struct {
	ProductID int64
	Status    Status
	Limit     int
	Offset    int
}

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

func (f ListFilter) normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
