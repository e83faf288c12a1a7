package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus tells whether an item is a must-have or a nice-to-have.
type ItemStatus string

const (
	ItemStatusRequired ItemStatus = "required"
	ItemStatusOptional ItemStatus = "optional"
)

// ValueTagHigh marks an item for the high-value filter.
const ValueTagHigh = "HIGH"

// GiftItem represents an entry in a gift list.
type GiftItem struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ListID      uuid.UUID  `json:"list_id" db:"list_id"`
	Name        string     `json:"name" db:"name"`
	Status      ItemStatus `json:"status" db:"status"`
	Priority    int        `json:"priority" db:"priority"`
	PriceLow    *float64   `json:"price_low" db:"price_low"`
	PriceHigh   *float64   `json:"price_high" db:"price_high"`
	Notes       *string    `json:"notes" db:"notes"`
	ValueTag    *string    `json:"value_tag" db:"value_tag"`
	SortOrder   int        `json:"sort_order" db:"sort_order"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	RetailerLinks []RetailerLink `json:"retailer_links"`
}

// HasValueTag reports whether the item carries the given value tag.
func (i *GiftItem) HasValueTag(tag string) bool {
	return i.ValueTag != nil && *i.ValueTag == tag
}

// Clone returns a deep copy of the item, including its links.
func (i GiftItem) Clone() GiftItem {
	c := i
	c.PriceLow = cloneFloat(i.PriceLow)
	c.PriceHigh = cloneFloat(i.PriceHigh)
	c.Notes = cloneString(i.Notes)
	c.ValueTag = cloneString(i.ValueTag)
	if i.RetailerLinks != nil {
		c.RetailerLinks = make([]RetailerLink, len(i.RetailerLinks))
		for n, l := range i.RetailerLinks {
			c.RetailerLinks[n] = l.Clone()
		}
	}
	return c
}

// CreateItemInput holds the fields accepted when creating an item.
type CreateItemInput struct {
	ListID    uuid.UUID  `json:"list_id"`
	Name      string     `json:"name"`
	Status    ItemStatus `json:"status"`
	Notes     string     `json:"notes"`
	PriceLow  *float64   `json:"price_low"`
	PriceHigh *float64   `json:"price_high"`
	ValueTag  *string    `json:"value_tag"`
}

// UpdateItemInput is a partial patch; nil fields are left untouched.
//
// ClearNotes, ClearPriceLow, ClearPriceHigh and ClearValueTag set the
// corresponding nullable column to NULL.
type UpdateItemInput struct {
	Name        *string     `json:"name,omitempty"`
	Status      *ItemStatus `json:"status,omitempty"`
	Priority    *int        `json:"priority,omitempty"`
	Notes       *string     `json:"notes,omitempty"`
	PriceLow    *float64    `json:"price_low,omitempty"`
	PriceHigh   *float64    `json:"price_high,omitempty"`
	ValueTag    *string     `json:"value_tag,omitempty"`
	IsCompleted *bool       `json:"is_completed,omitempty"`

	ClearNotes     bool `json:"clear_notes,omitempty"`
	ClearPriceLow  bool `json:"clear_price_low,omitempty"`
	ClearPriceHigh bool `json:"clear_price_high,omitempty"`
	ClearValueTag  bool `json:"clear_value_tag,omitempty"`
}

// Apply patches the item in place and stamps UpdatedAt.
func (in UpdateItemInput) Apply(item *GiftItem, now time.Time) {
	if in.Name != nil {
		item.Name = *in.Name
	}
	if in.Status != nil {
		item.Status = *in.Status
	}
	if in.Priority != nil {
		item.Priority = *in.Priority
	}
	if in.ClearNotes {
		item.Notes = nil
	} else if in.Notes != nil {
		item.Notes = cloneString(in.Notes)
	}
	if in.ClearPriceLow {
		item.PriceLow = nil
	} else if in.PriceLow != nil {
		item.PriceLow = cloneFloat(in.PriceLow)
	}
	if in.ClearPriceHigh {
		item.PriceHigh = nil
	} else if in.PriceHigh != nil {
		item.PriceHigh = cloneFloat(in.PriceHigh)
	}
	if in.ClearValueTag {
		item.ValueTag = nil
	} else if in.ValueTag != nil {
		item.ValueTag = cloneString(in.ValueTag)
	}
	if in.IsCompleted != nil {
		item.IsCompleted = *in.IsCompleted
	}
	item.UpdatedAt = now
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
