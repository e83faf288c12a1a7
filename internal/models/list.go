package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultListColor is the color tag given to lists created without one.
const DefaultListColor = "#6366f1"

// ListColors is the palette offered when creating a list.
var ListColors = []string{
	DefaultListColor, // indigo
	"#ef4444",        // red
	"#f97316",        // orange
	"#eab308",        // yellow
	"#22c55e",        // green
	"#06b6d4",        // cyan
}

// GiftList represents a named gift list owned by a user.
//
// ItemCount, IsOwner, IsShared and Role are derived when the list is read
// for a particular user and are never stored.
type GiftList struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	ItemCount int        `json:"item_count"`
	IsOwner   bool       `json:"is_owner"`
	IsShared  bool       `json:"is_shared"`
	Role      MemberRole `json:"role,omitempty"`
}

// CreateListInput holds the fields accepted when creating a list.
type CreateListInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// UpdateListInput is a partial patch; nil fields are left untouched.
type UpdateListInput struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}
