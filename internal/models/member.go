package models

import (
	"time"

	"github.com/google/uuid"
)

// MemberRole is the access level a user holds on a list.
type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleEditor MemberRole = "editor"
	RoleViewer MemberRole = "viewer"
)

// CanEdit reports whether the role may mutate items.
func (r MemberRole) CanEdit() bool {
	return r == RoleOwner || r == RoleEditor
}

// ListMember represents a collaborator's access to a list
type ListMember struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	ListID     uuid.UUID  `json:"list_id" db:"list_id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	Role       MemberRole `json:"role" db:"role"`
	InvitedBy  *uuid.UUID `json:"invited_by" db:"invited_by"`
	InvitedAt  time.Time  `json:"invited_at" db:"invited_at"`
	AcceptedAt *time.Time `json:"accepted_at" db:"accepted_at"`
}
