package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/telegram"
)

// ListHandlers serves the list commands.
type ListHandlers struct {
	base
}

// NewListHandlers creates the list command handlers.
func NewListHandlers(deps Deps) *ListHandlers {
	return &ListHandlers{base{deps}}
}

// Lists handles /lists: owned lists first, then lists shared with the user.
func (h *ListHandlers) Lists(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	s.Lists.Fetch(ctx)
	if msg := s.Lists.Err(); msg != "" {
		return apperrors.Remote(msg, nil)
	}

	lists := s.AllLists()
	if len(lists) == 0 {
		return reply(bot, message.Chat.ID, "🎁 No gift lists yet!\n\nCreate one with /newlist <name>")
	}

	active := s.Active()
	var sb strings.Builder
	sb.WriteString("🎁 Your gift lists\n\n")
	for i, l := range lists {
		marker := "  "
		if l.ID == active {
			marker = "▶ "
		}
		fmt.Fprintf(&sb, "%s%d. %s (%d items)", marker, i+1, l.Name, l.ItemCount)
		if l.IsShared {
			fmt.Fprintf(&sb, " · shared, %s", l.Role)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nSwitch with /use <n>")

	return reply(bot, message.Chat.ID, sb.String())
}

// NewList handles /newlist <name> [#color].
func (h *ListHandlers) NewList(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return usage("/newlist Birthday 2025 [#ef4444]")
	}
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}

	in := models.CreateListInput{}
	if last := args[len(args)-1]; len(args) > 1 && strings.HasPrefix(last, "#") {
		in.Color = last
		args = args[:len(args)-1]
	}
	in.Name = strings.Join(args, " ")

	list, err := s.Lists.Create(ctx, in)
	if err != nil {
		return err
	}
	if err := s.Use(ctx, list.ID); err != nil {
		return err
	}

	h.log(message, logrus.Fields{"list_id": list.ID}).Info("Gift list created")
	return reply(bot, message.Chat.ID, fmt.Sprintf("✅ Created %q and switched to it.\nAdd gifts with /add <name> | <price>", list.Name))
}

// Use handles /use <n>.
func (h *ListHandlers) Use(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return usage("/use <n> (see /lists)")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return usage("/use <n> (see /lists)")
	}

	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	if err := h.loadedLists(ctx, s); err != nil {
		return err
	}
	list, ok := s.ListAt(n)
	if !ok {
		return apperrors.NotFound(fmt.Sprintf("List #%d not found. Use /lists to see your lists.", n))
	}
	if err := s.Use(ctx, list.ID); err != nil {
		return err
	}

	return reply(bot, message.Chat.ID, renderItems(list.Name, s))
}

// RenameList handles /renamelist <name>. Only the owner may rename.
func (h *ListHandlers) RenameList(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return usage("/renamelist <new name>")
	}
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	list, _, err := h.activeList(ctx, s)
	if err != nil {
		return err
	}
	if _, err := h.Service.RequireOwner(ctx, s.UserID, list.ID); err != nil {
		return err
	}
	if err := h.loadedLists(ctx, s); err != nil {
		return err
	}

	name := strings.Join(args, " ")
	if err := s.Lists.Update(ctx, list.ID, models.UpdateListInput{Name: &name}); err != nil {
		return err
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("✏️ Renamed to %q", strings.TrimSpace(name)))
}

// DeleteList handles /dellist, removing the active list.
func (h *ListHandlers) DeleteList(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	list, _, err := h.activeList(ctx, s)
	if err != nil {
		return err
	}
	if _, err := h.Service.RequireOwner(ctx, s.UserID, list.ID); err != nil {
		return err
	}
	if err := h.loadedLists(ctx, s); err != nil {
		return err
	}

	if err := s.Lists.Remove(ctx, list.ID); err != nil {
		return err
	}
	s.Leave()

	h.log(message, logrus.Fields{"list_id": list.ID}).Info("Gift list deleted")
	return reply(bot, message.Chat.ID, fmt.Sprintf("🗑 Deleted %q", list.Name))
}
