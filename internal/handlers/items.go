package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/dashboard"
	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/session"
	"github.com/Kerhoff/GiftSync/internal/telegram"
)

// ItemHandlers serves the gift item commands.
type ItemHandlers struct {
	base
}

// NewItemHandlers creates the item command handlers.
func NewItemHandlers(deps Deps) *ItemHandlers {
	return &ItemHandlers{base{deps}}
}

// Items handles /items: the filtered view of the active list.
func (h *ItemHandlers) Items(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	list, _, err := h.activeList(ctx, s)
	if err != nil {
		return err
	}
	if err := s.Reload(ctx); err != nil {
		return err
	}
	return reply(bot, message.Chat.ID, renderItems(list.Name, s))
}

// Add handles /add <name> | <low-high> | <required|optional> | <high> | <notes>.
// Only the name is required.
func (h *ItemHandlers) Add(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return usage("/add Headphones | 50-120 | optional | high | noise cancelling")
	}
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

	parts := splitFields(message.CommandArguments())
	in := models.CreateItemInput{ListID: list.ID, Name: parts[0]}
	if len(parts) > 1 && parts[1] != "" {
		if in.PriceLow, in.PriceHigh, err = parseRange(parts[1]); err != nil {
			return err
		}
	}
	if len(parts) > 2 {
		if in.Status, err = parseStatus(parts[2]); err != nil {
			return err
		}
	}
	if len(parts) > 3 && strings.EqualFold(parts[3], "high") {
		tag := models.ValueTagHigh
		in.ValueTag = &tag
	}
	if len(parts) > 4 {
		in.Notes = strings.Join(parts[4:], " | ")
	}

	item, err := s.Items.Create(ctx, in)
	if err != nil {
		return err
	}

	h.log(message, logrus.Fields{"item_id": item.ID, "list_id": list.ID}).Info("Gift item added")
	return reply(bot, message.Chat.ID, fmt.Sprintf("🎁 Added #%d %s · %s",
		len(s.Items.Items()), item.Name, s.Privacy.FormatRange(item.PriceLow, item.PriceHigh)))
}

// Edit handles /edit <n> <field> <value>.
func (h *ItemHandlers) Edit(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	const help = "/edit <n> <name|price|status|notes|high|priority> <value>"
	if len(args) < 2 {
		return usage(help)
	}
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	if _, err := h.editableList(ctx, s); err != nil {
		return err
	}
	item, err := h.itemArg(ctx, s, args[0])
	if err != nil {
		return err
	}

	value := strings.Join(args[2:], " ")
	var patch models.UpdateItemInput
	switch strings.ToLower(args[1]) {
	case "name":
		patch.Name = &value
	case "price":
		if value == "" || value == "none" {
			patch.ClearPriceLow, patch.ClearPriceHigh = true, true
		} else if patch.PriceLow, patch.PriceHigh, err = parseRange(value); err != nil {
			return err
		}
	case "status":
		status, err := parseStatus(value)
		if err != nil {
			return err
		}
		patch.Status = &status
	case "notes":
		if value == "" {
			patch.ClearNotes = true
		} else {
			patch.Notes = &value
		}
	case "high":
		on, err := parseBool(value)
		if err != nil {
			return err
		}
		if on {
			tag := models.ValueTagHigh
			patch.ValueTag = &tag
		} else {
			patch.ClearValueTag = true
		}
	case "priority":
		p, err := strconv.Atoi(value)
		if err != nil {
			return apperrors.Validation("Priority must be a whole number")
		}
		patch.Priority = &p
	default:
		return usage(help)
	}

	if err := s.Items.Update(ctx, item.ID, patch); err != nil {
		return err
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("✏️ Updated #%s %s", strings.TrimPrefix(args[0], "#"), item.Name))
}

// Done handles /done <n>, toggling the purchased flag.
func (h *ItemHandlers) Done(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return usage("/done <n>")
	}
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	if _, err := h.editableList(ctx, s); err != nil {
		return err
	}
	item, err := h.itemArg(ctx, s, args[0])
	if err != nil {
		return err
	}

	if err := s.Items.ToggleComplete(ctx, item.ID, item.IsCompleted); err != nil {
		return err
	}
	if item.IsCompleted {
		return reply(bot, message.Chat.ID, fmt.Sprintf("↩️ %s is no longer purchased", item.Name))
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("✅ %s purchased", item.Name))
}

// Delete handles /del <n>.
func (h *ItemHandlers) Delete(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) != 1 {
		return usage("/del <n>")
	}
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	if _, err := h.editableList(ctx, s); err != nil {
		return err
	}
	item, err := h.itemArg(ctx, s, args[0])
	if err != nil {
		return err
	}

	if err := s.Items.Remove(ctx, item.ID); err != nil {
		return err
	}
	h.log(message, logrus.Fields{"item_id": item.ID}).Info("Gift item deleted")
	return reply(bot, message.Chat.ID, fmt.Sprintf("🗑 Deleted %s", item.Name))
}

// Link handles /link <n> <store> <url> [price] [best] [highend]. Store names
// with spaces are written with underscores.
func (h *ItemHandlers) Link(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) < 3 {
		return usage("/link <n> <store> <url> [price] [best] [highend]")
	}
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	if _, err := h.editableList(ctx, s); err != nil {
		return err
	}
	item, err := h.itemArg(ctx, s, args[0])
	if err != nil {
		return err
	}

	in := models.LinkInput{
		StoreName: strings.ReplaceAll(args[1], "_", " "),
		URL:       args[2],
	}
	for _, opt := range args[3:] {
		switch strings.ToLower(opt) {
		case "best", "cheapest":
			in.IsBestPrice = true
		case "highend", "high-end":
			in.IsHighend = true
		default:
			price, err := parsePrice(opt)
			if err != nil {
				return err
			}
			in.Price = &price
		}
	}

	link, err := s.Items.AddLink(ctx, item.ID, in)
	if err != nil {
		return err
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("🔗 Added %s link to %s", link.StoreName, item.Name))
}

// Unlink handles /unlink <n> <k>.
func (h *ItemHandlers) Unlink(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) != 2 {
		return usage("/unlink <item n> <link k>")
	}
	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}
	if _, err := h.editableList(ctx, s); err != nil {
		return err
	}
	item, err := h.itemArg(ctx, s, args[0])
	if err != nil {
		return err
	}
	k, err := strconv.Atoi(args[1])
	if err != nil || k < 1 || k > len(item.RetailerLinks) {
		return apperrors.NotFound(fmt.Sprintf("%s has no link #%s", item.Name, args[1]))
	}

	link := item.RetailerLinks[k-1]
	if err := s.Items.RemoveLink(ctx, item.ID, link.ID); err != nil {
		return err
	}
	return reply(bot, message.Chat.ID, fmt.Sprintf("🗑 Removed %s link from %s", link.StoreName, item.Name))
}

// renderItems draws the active list's filtered view. Item numbers are
// positions in the unfiltered list so they stay valid across filters.
func renderItems(listName string, s *session.Session) string {
	all := s.Items.Items()
	filter := s.Filter()
	listID := s.Active()

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 %s\n", listName)

	counts := dashboard.Counts(all)
	labels := make([]string, 0, len(dashboard.Filters))
	for _, f := range dashboard.Filters {
		label := fmt.Sprintf("%s %d", f, counts[f])
		if f == filter {
			label = "[" + label + "]"
		}
		labels = append(labels, label)
	}
	sb.WriteString(strings.Join(labels, " · "))
	sb.WriteString("\n\n")

	shown := 0
	for i, it := range all {
		if !filter.Match(&it) {
			continue
		}
		shown++
		sb.WriteString(renderItem(i+1, it, s.Selection.IsSelected(listID, it.ID), &s.Privacy))
	}
	if shown == 0 {
		if len(all) == 0 {
			sb.WriteString("No gifts yet. Add one with /add <name> | <price>\n")
		} else {
			fmt.Fprintf(&sb, "No %s gifts.\n", filter)
		}
	}

	sb.WriteString("\n")
	sb.WriteString(s.Privacy.FormatTotals(dashboard.Sum(all)))
	if n := s.Selection.Count(listID); n > 0 {
		fmt.Fprintf(&sb, "\n☑️ %d selected", n)
	}
	return sb.String()
}

func renderItem(n int, it models.GiftItem, selected bool, privacy *dashboard.Privacy) string {
	var sb strings.Builder
	if selected {
		sb.WriteString("☑️ ")
	} else {
		sb.WriteString("⬜ ")
	}
	fmt.Fprintf(&sb, "%d. ", n)
	if it.IsCompleted {
		sb.WriteString("✅ ")
	}
	sb.WriteString(it.Name)
	fmt.Fprintf(&sb, " · %s", privacy.FormatRange(it.PriceLow, it.PriceHigh))
	if it.Status == models.ItemStatusOptional {
		sb.WriteString(" · optional")
	}
	if it.HasValueTag(models.ValueTagHigh) {
		sb.WriteString(" 💎")
	}
	sb.WriteString("\n")

	for k, l := range it.RetailerLinks {
		fmt.Fprintf(&sb, "    🔗%d %s %s", k+1, l.StoreName, privacy.FormatPrice(l.Price))
		if l.IsBestPrice {
			sb.WriteString(" · best")
		}
		if l.IsHighend {
			sb.WriteString(" · high-end")
		}
		sb.WriteString("\n")
	}
	if it.Notes != nil {
		fmt.Fprintf(&sb, "    📝 %s\n", *it.Notes)
	}
	return sb.String()
}
