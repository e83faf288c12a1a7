package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/bulk"
	"github.com/Kerhoff/GiftSync/internal/dashboard"
	"github.com/Kerhoff/GiftSync/internal/telegram"
)

// SelectionHandlers serves the selection, filter, privacy and bulk commands.
type SelectionHandlers struct {
	base
}

// NewSelectionHandlers creates the selection command handlers.
func NewSelectionHandlers(deps Deps) *SelectionHandlers {
	return &SelectionHandlers{base{deps}}
}

// Select handles /select <n...|all|required|optional|none>. Numbers toggle;
// "all" selects every item in the current filter.
func (h *SelectionHandlers) Select(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return usage("/select <n...|all|required|optional|none>")
	}
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	list, _, err := h.activeList(ctx, s)
	if err != nil {
		return err
	}
	if err := h.loadedItems(ctx, s); err != nil {
		return err
	}

	switch strings.ToLower(args[0]) {
	case "all":
		s.Selection.SelectAll(list.ID, s.View())
	case "required":
		s.Selection.SelectRequired(list.ID, s.Items.Items())
	case "optional":
		s.Selection.SelectOptional(list.ID, s.Items.Items())
	case "none", "clear":
		s.Selection.Clear(list.ID)
	default:
		for _, arg := range args {
			item, err := h.itemArg(ctx, s, arg)
			if err != nil {
				return err
			}
			s.Selection.Toggle(list.ID, item.ID)
		}
	}

	return reply(bot, message.Chat.ID, fmt.Sprintf("☑️ %d selected\n\n%s", s.Selection.Count(list.ID), renderItems(list.Name, s)))
}

// Filter handles /filter <all|required|optional|high-value>.
func (h *SelectionHandlers) Filter(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return usage("/filter <all|required|optional|high-value>")
	}
	f, err := dashboard.ParseFilter(args[0])
	if err != nil {
		return apperrors.Validation("Filter must be all, required, optional or high-value")
	}
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	list, _, err := h.activeList(ctx, s)
	if err != nil {
		return err
	}
	if err := h.loadedItems(ctx, s); err != nil {
		return err
	}

	s.SetFilter(f)
	return reply(bot, message.Chat.ID, renderItems(list.Name, s))
}

// Blur handles /blur, toggling the price mask for this chat.
func (h *SelectionHandlers) Blur(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	if s.Privacy.Toggle() {
		return reply(bot, message.Chat.ID, "🙈 Prices hidden")
	}
	return reply(bot, message.Chat.ID, "👀 Prices visible")
}

// Open handles /open <cheapest|highend|amazon>: one link per selected item,
// sent a moment apart.
func (h *SelectionHandlers) Open(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return usage("/open <cheapest|highend|amazon>")
	}
	mode, err := bulk.ParseMode(args[0])
	if err != nil {
		return apperrors.Validation("Mode must be cheapest, highend or amazon")
	}
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	if _, _, err := h.activeList(ctx, s); err != nil {
		return err
	}
	if err := h.loadedItems(ctx, s); err != nil {
		return err
	}

	selected := s.SelectedItems()
	if len(selected) == 0 {
		return apperrors.Validation(msgNoSelection)
	}

	opener := telegram.LinkOpener{Bot: bot, ChatID: message.Chat.ID}
	dispatcher := bulk.NewDispatcher(opener, h.Schedule, h.Logger, h.Service.Metrics())
	targets := dispatcher.Open(ctx, selected, mode)

	h.log(message, logrus.Fields{"mode": mode, "links": len(targets)}).Info("Opening retailer links")
	if len(targets) == 0 {
		return reply(bot, message.Chat.ID, fmt.Sprintf("No %s links found for the %d selected items.", mode, len(selected)))
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("🛍 Opening %d %s links for %d selected items…", len(targets), mode, len(selected)))
}

// Purchased handles /purchased and /unpurchased over the selection. The
// selection is cleared only when the update succeeds.
func (h *SelectionHandlers) Purchased(value bool) telegram.HandlerFunc {
	return func(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
		s, err := h.session(ctx, message)
		if err != nil {
			return err
		}
		list, err := h.editableList(ctx, s)
		if err != nil {
			return err
		}
		if err := h.loadedItems(ctx, s); err != nil {
			return err
		}

		selected := s.SelectedItems()
		if len(selected) == 0 {
			return apperrors.Validation(msgNoSelection)
		}
		ids := make([]uuid.UUID, len(selected))
		for i, it := range selected {
			ids[i] = it.ID
		}

		dispatcher := bulk.NewDispatcher(nil, h.Schedule, h.Logger, h.Service.Metrics())
		if err := dispatcher.MarkPurchased(ctx, s.Items, ids, value); err != nil {
			return err
		}
		s.Selection.Clear(list.ID)

		verb := "purchased"
		if !value {
			verb = "not purchased"
		}
		h.log(message, logrus.Fields{"list_id": list.ID, "count": len(ids), "value": value}).Info("Bulk completion updated")
		return reply(bot, message.Chat.ID, fmt.Sprintf("✅ Marked %s as %s", plural(len(ids), "item"), verb))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
