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
	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/ratelimit"
	"github.com/Kerhoff/GiftSync/internal/service"
	"github.com/Kerhoff/GiftSync/internal/session"
	"github.com/Kerhoff/GiftSync/internal/telegram"
)

// Deps holds what every command handler needs.
type Deps struct {
	Service  *service.Service
	Sessions *session.Manager
	// InviteLimit limits invitation creation per user; nil disables it.
	InviteLimit *ratelimit.Keyed
	// Schedule delays link opens; nil means bulk.AfterFunc.
	Schedule bulk.Scheduler
	Logger   *logrus.Logger
}

type base struct {
	Deps
}

// session resolves the chat user's account and session.
func (b *base) session(ctx context.Context, message *tgbotapi.Message) (*session.Session, error) {
	from := message.From
	user, err := b.Service.Auth.EnsureTelegramUser(ctx, from.ID, from.UserName, from.FirstName, from.LastName)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return b.Sessions.Get(session.Key{ChatID: message.Chat.ID, UserID: from.ID}, user.ID), nil
}

// activeList returns the session's active list and the user's role on it.
func (b *base) activeList(ctx context.Context, s *session.Session) (*models.GiftList, models.MemberRole, error) {
	listID := s.Active()
	if listID == uuid.Nil {
		return nil, "", apperrors.Validation(msgNoActiveList)
	}
	return b.Service.RequireRead(ctx, s.UserID, listID)
}

// editableList is activeList for commands that mutate items.
func (b *base) editableList(ctx context.Context, s *session.Session) (*models.GiftList, error) {
	listID := s.Active()
	if listID == uuid.Nil {
		return nil, apperrors.Validation(msgNoActiveList)
	}
	list, _, err := b.Service.RequireEdit(ctx, s.UserID, listID)
	return list, err
}

// loadedItems makes sure the item store holds the active list.
func (b *base) loadedItems(ctx context.Context, s *session.Session) error {
	if s.Items.Loading() || s.Items.ListID() != s.Active() {
		return s.Reload(ctx)
	}
	return nil
}

// loadedLists makes sure the list store has been fetched once.
func (b *base) loadedLists(ctx context.Context, s *session.Session) error {
	if s.Lists.Loading() {
		s.Lists.Fetch(ctx)
	}
	if msg := s.Lists.Err(); msg != "" {
		return apperrors.Remote(msg, nil)
	}
	return nil
}

// itemArg resolves a 1-based item number from the active list.
func (b *base) itemArg(ctx context.Context, s *session.Session, arg string) (models.GiftItem, error) {
	if err := b.loadedItems(ctx, s); err != nil {
		return models.GiftItem{}, err
	}
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil {
		return models.GiftItem{}, apperrors.Validation(fmt.Sprintf("%q is not an item number", arg))
	}
	item, ok := s.ItemAt(n)
	if !ok {
		return models.GiftItem{}, apperrors.NotFound(fmt.Sprintf("Item #%d not found. Use /items to see the list.", n))
	}
	return item, nil
}

func (b *base) log(message *tgbotapi.Message, fields logrus.Fields) *logrus.Entry {
	entry := b.Logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	})
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	return entry
}

const (
	msgNoActiveList = "No list selected. Use /lists and /use first."
	msgNoSelection  = "No items selected. Use /select first."
)

// reply sends plain text; list and item names are user input and are not
// escaped for Markdown.
func reply(bot telegram.Sender, chatID int64, text string) error {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// replyMarkdown sends static help text.
func replyMarkdown(bot telegram.Sender, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func usage(text string) error {
	return apperrors.Validation("Usage: " + text)
}

// parsePrice reads "50", "$50" or "49.99".
func parsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(s), "$"), 64)
	if err != nil || v < 0 {
		return 0, apperrors.Validation(fmt.Sprintf("%q is not a valid price", s))
	}
	return v, nil
}

// parseRange reads "50-120" or a single price used for both ends.
func parseRange(s string) (*float64, *float64, error) {
	lowText, highText, found := strings.Cut(s, "-")
	low, err := parsePrice(lowText)
	if err != nil {
		return nil, nil, err
	}
	high := low
	if found {
		if high, err = parsePrice(highText); err != nil {
			return nil, nil, err
		}
	}
	return &low, &high, nil
}

func parseStatus(s string) (models.ItemStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "required", "req", "must":
		return models.ItemStatusRequired, nil
	case "optional", "opt", "nice":
		return models.ItemStatusOptional, nil
	}
	return "", apperrors.Validation("Status must be required or optional")
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes", "true", "1":
		return true, nil
	case "off", "no", "false", "0":
		return false, nil
	}
	return false, apperrors.Validation(fmt.Sprintf("%q is not on or off", s))
}

// splitFields splits "a | b | c" into trimmed parts.
func splitFields(s string) []string {
	parts := strings.Split(s, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
