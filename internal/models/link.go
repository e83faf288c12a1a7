package models

import (
	"time"

	"github.com/google/uuid"
)

// RetailerLink represents a place where an item can be bought.
type RetailerLink struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ItemID      uuid.UUID `json:"item_id" db:"item_id"`
	StoreName   string    `json:"store_name" db:"store_name"`
	URL         string    `json:"url" db:"url"`
	Price       *float64  `json:"price" db:"price"`
	IsBestPrice bool      `json:"is_best_price" db:"is_best_price"`
	IsHighend   bool      `json:"is_highend" db:"is_highend"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Clone returns a copy that shares no pointers with l.
func (l RetailerLink) Clone() RetailerLink {
	c := l
	c.Price = cloneFloat(l.Price)
	return c
}

// LinkInput holds the fields accepted when adding a retailer link.
type LinkInput struct {
	StoreName   string   `json:"store_name"`
	URL         string   `json:"url"`
	Price       *float64 `json:"price"`
	IsBestPrice bool     `json:"is_best_price"`
	IsHighend   bool     `json:"is_highend"`
}
