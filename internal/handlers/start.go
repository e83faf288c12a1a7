package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftSync/internal/telegram"
)

// StartHandler handles the /start command
type StartHandler struct {
	base
}

// NewStartHandler creates a new start command handler
func NewStartHandler(deps Deps) *StartHandler {
	return &StartHandler{base{deps}}
}

// Handle registers the Telegram account and greets the user. "/start <token>"
// coming from an invite deep link is forwarded to /join.
func (h *StartHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) == 1 {
		return NewJoinHandler(h.Deps).Handle(ctx, bot, message, args)
	}

	s, err := h.session(ctx, message)
	if err != nil {
		return err
	}

	welcomeText := `🎁 *Welcome to GiftSync!*

Keep your gift lists in one place, share them with family and friends, and open every store link in one go.

*Get started:*
• /newlist <name> - Create a gift list
• /lists - Show your lists
• /use <n> - Switch to a list
• /add <name> | <price> - Add a gift

Use /help to see every command.`

	if err := replyMarkdown(bot, message.Chat.ID, welcomeText); err != nil {
		return fmt.Errorf("failed to send start message: %w", err)
	}

	h.log(message, logrus.Fields{"account_id": s.UserID}).Info("Sent start message")
	return nil
}
