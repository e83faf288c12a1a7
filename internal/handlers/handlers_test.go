package handlers

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/GiftSync/internal/auth"
	"github.com/Kerhoff/GiftSync/internal/invite"
	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/ratelimit"
	"github.com/Kerhoff/GiftSync/internal/repository/memory"
	"github.com/Kerhoff/GiftSync/internal/service"
	"github.com/Kerhoff/GiftSync/internal/session"
	"github.com/Kerhoff/GiftSync/internal/telegram"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// take returns and forgets everything sent so far.
func (f *fakeSender) take() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sent
	f.sent = nil
	return out
}

type harness struct {
	t      *testing.T
	router *telegram.Router
	bot    *fakeSender
	svc    *service.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := memory.New()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repos := service.Repositories{
		Users:    memory.NewUserRepository(db),
		Sessions: memory.NewSessionRepository(db),
		Lists:    memory.NewListRepository(db),
		Items:    memory.NewItemRepository(db),
		Links:    memory.NewLinkRepository(db),
		Invites:  memory.NewInviteRepository(db),
		Members:  memory.NewMemberRepository(db),
	}
	authSvc := auth.NewService(repos.Users, repos.Sessions, logger, "secret", time.Hour)
	inviteSvc := invite.NewService(repos.Lists, repos.Invites, repos.Members, logger, nil, "https://giftsync.test")
	svc := service.New(logger, nil, repos, authSvc, inviteSvc)

	router := telegram.NewRouter(logger)
	Register(router, Deps{
		Service:     svc,
		Sessions:    session.NewManager(svc, time.Hour),
		InviteLimit: ratelimit.PerMinute(3),
		Schedule:    func(_ time.Duration, fn func()) { fn() },
		Logger:      logger,
	})

	return &harness{t: t, router: router, bot: &fakeSender{}, svc: svc}
}

// send runs text as user in chat 100 and returns the texts sent back.
func (h *harness) send(user int64, text string) []string {
	h.t.Helper()
	cmd, _, _ := strings.Cut(text, " ")
	h.router.HandleMessage(context.Background(), h.bot, &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: user, FirstName: names[user]},
		Chat:      &tgbotapi.Chat{ID: 100},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	})

	var out []string
	for _, m := range h.bot.take() {
		out = append(out, m.Text)
	}
	return out
}

// last runs text and returns the final reply.
func (h *harness) last(user int64, text string) string {
	h.t.Helper()
	replies := h.send(user, text)
	require.NotEmpty(h.t, replies, text)
	return replies[len(replies)-1]
}

const (
	ana int64 = 1
	bob int64 = 2
)

var names = map[int64]string{ana: "Ana", bob: "Bob"}

func TestStartAndHelp(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.last(ana, "/start"), "Welcome to GiftSync")
	assert.Contains(t, h.last(ana, "/help"), "/purchased")
	assert.Contains(t, h.last(ana, "/lists"), "No gift lists yet")
}

func TestListCommands(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.last(ana, "/newlist"), "Usage")
	assert.Contains(t, h.last(ana, "/newlist Birthday 2025"), `Created "Birthday 2025"`)
	h.last(ana, "/newlist Wedding #ef4444")

	lists := h.last(ana, "/lists")
	assert.Contains(t, lists, "1. Wedding")
	assert.Contains(t, lists, "▶ 1. Wedding")
	assert.Contains(t, lists, "2. Birthday 2025")

	assert.Contains(t, h.last(ana, "/use 2"), "📋 Birthday 2025")
	assert.Contains(t, h.last(ana, "/use 9"), "List #9 not found")

	assert.Contains(t, h.last(ana, "/renamelist Birthday"), `Renamed to "Birthday"`)
	assert.Contains(t, h.last(ana, "/lists"), "Birthday (0 items)")

	assert.Contains(t, h.last(ana, "/dellist"), `Deleted "Birthday"`)
	assert.Contains(t, h.last(ana, "/items"), "No list selected")
	assert.NotContains(t, h.last(ana, "/lists"), "Birthday")
}

func TestItemCommands(t *testing.T) {
	h := newHarness(t)
	h.last(ana, "/newlist Birthday")

	assert.Contains(t, h.last(ana, "/add Headphones | 50-120 | required | high | noise cancelling"), "Added #1 Headphones · $50-$120")
	assert.Contains(t, h.last(ana, "/add Scarf | 20 | optional"), "Added #2 Scarf · $20-$20")
	assert.Contains(t, h.last(ana, "/add Bad | 200-100"), "Low price cannot exceed high price")
	assert.Contains(t, h.last(ana, "/add Bad | cheap"), "not a valid price")

	view := h.last(ana, "/items")
	assert.Contains(t, view, "1. Headphones · $50-$120 💎")
	assert.Contains(t, view, "2. Scarf · $20-$20 · optional")
	assert.Contains(t, view, "📝 noise cancelling")
	assert.Contains(t, view, "0/2 purchased · $70 - $140")

	assert.Contains(t, h.last(ana, "/edit 2 name Wool scarf"), "Updated #2")
	assert.Contains(t, h.last(ana, "/edit 2 price 500-10"), "Low price cannot exceed high price")
	assert.Contains(t, h.last(ana, "/edit 2 color red"), "Usage")

	assert.Contains(t, h.last(ana, "/done 1"), "Headphones purchased")
	assert.Contains(t, h.last(ana, "/items"), "1. ✅ Headphones")
	assert.Contains(t, h.last(ana, "/done 1"), "no longer purchased")

	assert.Contains(t, h.last(ana, "/link 1 Best_Buy https://bestbuy.com/h 89.99 best"), "Added Best Buy link to Headphones")
	assert.Contains(t, h.last(ana, "/link 1 Shop ftp://nope"), "Link URL must be a valid http(s) address")
	assert.Contains(t, h.last(ana, "/items"), "🔗1 Best Buy $89.99 · best")
	assert.Contains(t, h.last(ana, "/unlink 1 1"), "Removed Best Buy link")
	assert.Contains(t, h.last(ana, "/unlink 1 1"), "has no link #1")

	assert.Contains(t, h.last(ana, "/del 2"), "Deleted Wool scarf")
	assert.Contains(t, h.last(ana, "/del 2"), "Item #2 not found")
}

func TestFilterBlurAndSelection(t *testing.T) {
	h := newHarness(t)
	h.last(ana, "/newlist Birthday")
	h.last(ana, "/add Headphones | 50-120 | required | high")
	h.last(ana, "/add Scarf | 20 | optional")
	h.last(ana, "/add Book | 15 | required")

	view := h.last(ana, "/filter high")
	assert.Contains(t, view, "[high-value 1]")
	assert.Contains(t, view, "Headphones")
	assert.NotContains(t, view, "Scarf")
	assert.Contains(t, h.last(ana, "/filter sideways"), "Filter must be")

	// "all" selects what the filter shows.
	assert.Contains(t, h.last(ana, "/select all"), "1 selected")
	h.last(ana, "/filter all")
	assert.Contains(t, h.last(ana, "/select required"), "2 selected")
	assert.Contains(t, h.last(ana, "/select optional"), "1 selected")
	assert.Contains(t, h.last(ana, "/select 1 3"), "3 selected")
	assert.Contains(t, h.last(ana, "/select 3"), "2 selected")
	assert.Contains(t, h.last(ana, "/select none"), "0 selected")

	assert.Contains(t, h.last(ana, "/blur"), "Prices hidden")
	view = h.last(ana, "/items")
	assert.Contains(t, view, "Headphones · ••••")
	assert.Contains(t, view, "0/3 purchased · ••••")
	assert.Contains(t, h.last(ana, "/blur"), "Prices visible")
}

func TestOpenAndPurchased(t *testing.T) {
	h := newHarness(t)
	h.last(ana, "/newlist Birthday")
	h.last(ana, "/add Headphones | 50-120")
	h.last(ana, "/add Scarf | 20")
	h.last(ana, "/link 1 Amazon https://amazon.com/h 99 best")
	h.last(ana, "/link 1 Hifi_Shop https://hifi.example/h 150 highend")
	h.last(ana, "/link 2 Etsy https://etsy.com/s 25")

	assert.Contains(t, h.last(ana, "/open cheapest"), "No items selected")
	h.last(ana, "/select all")

	replies := h.send(ana, "/open cheapest")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0], "Headphones")
	assert.Contains(t, replies[1], "Opening 1 cheapest links for 2 selected items")

	assert.Contains(t, h.last(ana, "/open everything"), "Mode must be")
	assert.Contains(t, h.last(ana, "/open etsy"), "Mode must be")

	replies = h.send(ana, "/open amazon")
	require.Len(t, replies, 2)
	assert.Contains(t, replies[0], "Amazon")

	assert.Contains(t, h.last(ana, "/purchased"), "Marked 2 items as purchased")
	view := h.last(ana, "/items")
	assert.Contains(t, view, "2/2 purchased")
	assert.NotContains(t, view, "selected")
	assert.Contains(t, h.last(ana, "/purchased"), "No items selected")

	h.last(ana, "/select 2")
	assert.Contains(t, h.last(ana, "/unpurchased"), "Marked 1 item as not purchased")
	assert.Contains(t, h.last(ana, "/items"), "1/2 purchased")
}

func TestInviteJoinAndRoles(t *testing.T) {
	h := newHarness(t)
	h.last(ana, "/newlist Wedding")
	h.last(ana, "/add Vase | 40")

	assert.Contains(t, h.last(ana, "/invite not-an-email"), "Please enter a valid email address")

	reply := h.last(ana, "/invite bob@example.com viewer")
	assert.Contains(t, reply, `Invited bob@example.com to "Wedding" as viewer`)
	assert.Contains(t, reply, "https://giftsync.test/invite/")
	token := reply[strings.Index(reply, "/join ")+len("/join ") : strings.Index(reply, "/join ")+len("/join ")+32]

	assert.Contains(t, h.last(ana, "/invite bob@example.com"), "This email has already been invited")
	assert.Contains(t, h.last(ana, "/invite carol@example.com"), "Too many invitations")

	assert.Contains(t, h.last(bob, "/join deadbeef"), "Invalid invitation")
	assert.Contains(t, h.last(bob, "/join https://giftsync.test/invite/"+token), `You joined "Wedding" as viewer`)
	assert.Contains(t, h.last(bob, "/join "+token), "This invitation has already been used")

	lists := h.last(bob, "/lists")
	assert.Contains(t, lists, "▶ 1. Wedding (1 items) · shared, viewer")
	assert.Contains(t, h.last(bob, "/items"), "Vase")
	assert.Contains(t, h.last(bob, "/add Candles"), "You do not have permission to edit this list")
	assert.Contains(t, h.last(bob, "/done 1"), "You do not have permission to edit this list")
	assert.Contains(t, h.last(bob, "/dellist"), "Only the list owner can do that")

	members := h.last(ana, "/members")
	assert.Contains(t, members, "Ana · owner")
	assert.Contains(t, members, "Bob · viewer")

	assert.Contains(t, h.last(bob, "/invite dave@example.com"), "Only the list owner can invite members")
}

func TestStartWithInviteToken(t *testing.T) {
	h := newHarness(t)
	h.last(ana, "/newlist Wedding")

	list, err := h.svc.Lists.GetByOwner(context.Background(), mustUser(t, h, ana).ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	created, err := h.svc.Invitations.Create(context.Background(), mustUser(t, h, ana).ID, list[0].ID, "bob@example.com", models.RoleEditor)
	require.NoError(t, err)

	assert.Contains(t, h.last(bob, "/start "+created.Token), `You joined "Wedding" as editor`)
	assert.Contains(t, h.last(bob, "/add Candles"), "Added #1 Candles")
}

func mustUser(t *testing.T, h *harness, telegramID int64) *models.User {
	t.Helper()
	user, err := h.svc.Users.GetByTelegramID(context.Background(), telegramID)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}
