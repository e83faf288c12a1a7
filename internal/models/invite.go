package models

import (
	"time"

	"github.com/google/uuid"
)

// InviteState is derived from an invite's timestamps; it is never stored.
type InviteState string

const (
	InviteStatePending  InviteState = "pending"
	InviteStateAccepted InviteState = "accepted"
	InviteStateExpired  InviteState = "expired"
)

// ListInvite is a single-use, time-limited invitation to collaborate on a list.
type ListInvite struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	ListID     uuid.UUID  `json:"list_id" db:"list_id"`
	Token      string     `json:"-" db:"invite_token"`
	Email      string     `json:"email" db:"email"`
	Role       MemberRole `json:"role" db:"role"`
	InvitedBy  uuid.UUID  `json:"invited_by" db:"invited_by"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at" db:"accepted_at"`
	AcceptedBy *uuid.UUID `json:"accepted_by" db:"accepted_by"`

	ListName string `json:"list_name,omitempty"`
}

// State classifies the invite at the given instant. Acceptance wins over
// expiry: an invite accepted before it lapsed stays accepted.
func (i *ListInvite) State(now time.Time) InviteState {
	if i.AcceptedAt != nil {
		return InviteStateAccepted
	}
	if now.After(i.ExpiresAt) {
		return InviteStateExpired
	}
	return InviteStatePending
}
