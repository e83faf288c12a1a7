package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftSync/internal/bulk"
)

// Bot wraps the Telegram bot API
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *logrus.Logger
	router *Router
	ctx    context.Context
}

// NewBot creates a new Telegram bot instance
func NewBot(token string, logger *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:    api,
		logger: logger,
		router: NewRouter(logger),
		ctx:    context.Background(),
	}, nil
}

// SetWebhook registers webhookURL with Telegram. Updates then arrive through
// HandleWebhook instead of Start.
func (b *Bot) SetWebhook(ctx context.Context, webhookURL string) error {
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}

	_, err = b.api.Request(wh)
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	b.ctx = ctx
	b.logger.Infof("Webhook set to %s", webhookURL)
	return nil
}

// Start starts the bot with long polling
func (b *Bot) Start(ctx context.Context) error {
	// Delete webhook if exists and use polling
	_, err := b.api.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started with long polling")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping bot...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

// HandleWebhook handles incoming webhook updates
func (b *Bot) HandleWebhook(update tgbotapi.Update) {
	go b.handleUpdate(b.ctx, update)
}

// handleUpdate processes incoming updates
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("Panic in update handler: %v", r)
		}
	}()

	if update.Message != nil {
		b.router.HandleMessage(ctx, b.api, update.Message)
	} else if update.CallbackQuery != nil {
		b.router.HandleCallbackQuery(b.api, update.CallbackQuery)
	}
}

// RegisterCommand registers a command handler on the router
func (b *Bot) RegisterCommand(command string, handler CommandHandler) {
	b.router.RegisterCommand(command, handler)
}

// LinkOpener delivers retailer links to a chat as URL buttons, one message
// per link. It stands in for browser tabs in a chat client.
type LinkOpener struct {
	Bot    Sender
	ChatID int64
}

var _ bulk.Opener = LinkOpener{}

// Open sends a single message whose button opens url.
func (o LinkOpener) Open(ctx context.Context, target bulk.Target) error {
	text := fmt.Sprintf("🛒 %s\n%s", target.ItemName, target.Link.StoreName)
	if target.Link.Price != nil {
		text += fmt.Sprintf(" · $%.2f", *target.Link.Price)
	}

	msg := tgbotapi.NewMessage(o.ChatID, text)
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Open "+target.Link.StoreName, target.Link.URL),
		),
	)

	if _, err := o.Bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send link for %s: %w", target.ItemName, err)
	}
	return nil
}
