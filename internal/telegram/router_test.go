package telegram

import (
	"context"
	"errors"
	"io"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/bulk"
	"github.com/Kerhoff/GiftSync/internal/models"
)

type fakeSender struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	err      error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, f.err
}

func (f *fakeSender) texts() []string {
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func command(text string) *tgbotapi.Message {
	cmd := text
	for i, r := range text {
		if r == ' ' {
			cmd = text[:i]
			break
		}
	}
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 42, UserName: "ana"},
		Chat:      &tgbotapi.Chat{ID: 7},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func TestRouterDispatchesArguments(t *testing.T) {
	r := NewRouter(quietLogger())
	var got []string
	r.RegisterCommand("add", HandlerFunc(func(_ context.Context, _ Sender, _ *tgbotapi.Message, args []string) error {
		got = args
		return nil
	}))

	bot := &fakeSender{}
	r.HandleMessage(context.Background(), bot, command("/add Lamp  50"))

	assert.Equal(t, []string{"Lamp", "50"}, got)
	assert.Empty(t, bot.sent)
	assert.Equal(t, []string{"add"}, r.Commands())
}

func TestRouterUnknownCommand(t *testing.T) {
	r := NewRouter(quietLogger())
	bot := &fakeSender{}

	r.HandleMessage(context.Background(), bot, command("/nope"))

	require.Len(t, bot.texts(), 1)
	assert.Contains(t, bot.texts()[0], "Unknown command")
}

func TestRouterIgnoresPlainText(t *testing.T) {
	r := NewRouter(quietLogger())
	bot := &fakeSender{}

	r.HandleMessage(context.Background(), bot, &tgbotapi.Message{
		From: &tgbotapi.User{ID: 42},
		Chat: &tgbotapi.Chat{ID: 7},
		Text: "hello",
	})

	assert.Empty(t, bot.sent)
}

func TestRouterErrorReplies(t *testing.T) {
	r := NewRouter(quietLogger())
	r.RegisterCommand("typed", HandlerFunc(func(context.Context, Sender, *tgbotapi.Message, []string) error {
		return apperrors.Validation("Please enter a gift name")
	}))
	r.RegisterCommand("raw", HandlerFunc(func(context.Context, Sender, *tgbotapi.Message, []string) error {
		return errors.New("pq: connection refused")
	}))

	bot := &fakeSender{}
	r.HandleMessage(context.Background(), bot, command("/typed"))
	r.HandleMessage(context.Background(), bot, command("/raw"))

	texts := bot.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, "❌ Please enter a gift name", texts[0])
	assert.NotContains(t, texts[1], "pq")
	assert.Contains(t, texts[1], "An error occurred")
}

func TestRouterAnswersCallbacks(t *testing.T) {
	r := NewRouter(quietLogger())
	bot := &fakeSender{}

	r.HandleCallbackQuery(bot, &tgbotapi.CallbackQuery{ID: "cb1", From: &tgbotapi.User{ID: 42}})

	require.Len(t, bot.requests, 1)
	cb, ok := bot.requests[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, "cb1", cb.CallbackQueryID)
}

func TestLinkOpenerSendsURLButton(t *testing.T) {
	bot := &fakeSender{}
	price := 49.99
	opener := LinkOpener{Bot: bot, ChatID: 7}

	err := opener.Open(context.Background(), bulk.Target{
		ItemName: "Headphones",
		Link:     models.RetailerLink{StoreName: "Amazon", URL: "https://amazon.com/x", Price: &price},
	})
	require.NoError(t, err)

	require.Len(t, bot.sent, 1)
	msg := bot.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(7), msg.ChatID)
	assert.Contains(t, msg.Text, "Headphones")
	assert.Contains(t, msg.Text, "$49.99")

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, markup.InlineKeyboard[0][0].URL)
	assert.Equal(t, "https://amazon.com/x", *markup.InlineKeyboard[0][0].URL)
}

func TestLinkOpenerWrapsSendError(t *testing.T) {
	bot := &fakeSender{err: errors.New("blocked")}
	opener := LinkOpener{Bot: bot, ChatID: 7}

	err := opener.Open(context.Background(), bulk.Target{ItemName: "Lamp", Link: models.RetailerLink{URL: "https://x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Lamp")
}
