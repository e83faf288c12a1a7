package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftSync/internal/telegram"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(_ context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	helpText := `📚 *GiftSync Help*

*Lists:*
• /lists - Show your own and shared lists
• /newlist <name> [#color] - Create a list
• /use <n> - Switch to list n
• /renamelist <name> - Rename the current list
• /dellist - Delete the current list

*Gifts:*
• /items - Show gifts in the current list
• /add <name> | <low-high> | <required/optional> | <high> | <notes>
• /edit <n> <name|price|status|notes|high|priority> <value>
• /done <n> - Toggle purchased
• /del <n> - Delete a gift
• /link <n> <store> <url> [price] [best] [highend]
• /unlink <n> <k> - Remove link k of gift n

*Selection:*
• /select <n...|all|required|optional|none>
• /filter <all|required|optional|high-value>
• /open <cheapest|highend|amazon> - Open one link per selected gift
• /purchased, /unpurchased - Mark the selection
• /blur - Hide or show prices

*Sharing:*
• /invite <email> [editor|viewer] - Invite someone to the current list
• /join <token> - Accept an invitation
• /members - Show who can see the current list`

	if err := replyMarkdown(bot, message.Chat.ID, helpText); err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}).Debug("Sent help message")

	return nil
}
