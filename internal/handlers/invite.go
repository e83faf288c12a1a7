package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/telegram"
)

const msgTooManyInvites = "Too many invitations. Please wait a minute and try again."

// InviteHandler handles /invite <email> [editor|viewer].
type InviteHandler struct {
	base
}

// NewInviteHandler creates a new invite command handler.
func NewInviteHandler(deps Deps) *InviteHandler {
	return &InviteHandler{base{deps}}
}

func (h *InviteHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return usage("/invite <email> [editor|viewer]")
	}
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	list, _, err := h.activeList(ctx, s)
	if err != nil {
		return err
	}

	if h.InviteLimit != nil && !h.InviteLimit.Allow(s.UserID.String()) {
		return apperrors.Validation(msgTooManyInvites)
	}

	var role models.MemberRole
	if len(args) == 2 {
		role = models.MemberRole(strings.ToLower(args[1]))
	}

	created, err := h.Service.Invitations.Create(ctx, s.UserID, list.ID, args[0], role)
	if err != nil {
		return err
	}

	h.log(message, logrus.Fields{"list_id": list.ID, "invite_id": created.Invite.ID}).Info("Invitation created")

	text := fmt.Sprintf("✉️ Invited %s to %q as %s.\n\nShare this link:\n%s\n\nTelegram users can also send:\n/join %s\n\nThe invitation expires %s.",
		created.Invite.Email, list.Name, created.Invite.Role, created.URL, created.Token,
		created.Invite.ExpiresAt.Format("Jan 2, 2006"))
	return reply(bot, message.Chat.ID, text)
}

// JoinHandler handles /join <token>: preview, then accept.
type JoinHandler struct {
	base
}

// NewJoinHandler creates a new join command handler.
func NewJoinHandler(deps Deps) *JoinHandler {
	return &JoinHandler{base{deps}}
}

func (h *JoinHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return usage("/join <token>")
	}
	token := args[0]
	if i := strings.LastIndex(token, "/invite/"); i >= 0 {
		token = token[i+len("/invite/"):]
	}

	details := h.Service.Invitations.Details(ctx, token)
	if !details.Valid {
		return reply(bot, message.Chat.ID, "❌ "+details.Error)
	}

	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	accepted, err := h.Service.Invitations.Accept(ctx, s.UserID, token)
	if err != nil {
		return err
	}

	s.Lists.Fetch(ctx)
	if err := s.Use(ctx, accepted.ListID); err != nil {
		h.log(message, logrus.Fields{"list_id": accepted.ListID, "error": err}).Warn("Failed to load joined list")
	}

	h.log(message, logrus.Fields{"list_id": accepted.ListID}).Info("Invitation accepted")
	return reply(bot, message.Chat.ID, fmt.Sprintf("🎉 You joined %q as %s. Use /items to see it.", accepted.ListName, details.Role))
}

// MembersHandler handles /members: collaborators of the active list and, for
// the owner, invitations still pending.
type MembersHandler struct {
	base
}

// NewMembersHandler creates a new members command handler.
func NewMembersHandler(deps Deps) *MembersHandler {
	return &MembersHandler{base{deps}}
}

func (h *MembersHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	list, role, err := h.activeList(ctx, s)
	if err != nil {
		return err
	}

	members, err := h.Service.Members.GetByList(ctx, list.ID)
	if err != nil {
		return fmt.Errorf("get members: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 %s\n\n", list.Name)
	fmt.Fprintf(&sb, "• %s · owner\n", h.userName(ctx, list.UserID))
	for _, m := range members {
		fmt.Fprintf(&sb, "• %s · %s\n", h.userName(ctx, m.UserID), m.Role)
	}

	if role == models.RoleOwner {
		invites, err := h.Service.Invites.GetByList(ctx, list.ID)
		if err != nil {
			return fmt.Errorf("get invites: %w", err)
		}
		now := time.Now()
		var pending []string
		for _, inv := range invites {
			if inv.State(now) == models.InviteStatePending {
				pending = append(pending, fmt.Sprintf("• %s · %s · expires %s", inv.Email, inv.Role, inv.ExpiresAt.Format("Jan 2")))
			}
		}
		if len(pending) > 0 {
			sb.WriteString("\n✉️ Pending invitations\n")
			sb.WriteString(strings.Join(pending, "\n"))
		}
	}

	return reply(bot, message.Chat.ID, sb.String())
}

func (h *MembersHandler) userName(ctx context.Context, id uuid.UUID) string {
	user, err := h.Service.Users.GetByID(ctx, id)
	if err != nil || user == nil || user.Name() == "" {
		return id.String()[:8]
	}
	return user.Name()
}
