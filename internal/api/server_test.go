package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/GiftSync/internal/auth"
	"github.com/Kerhoff/GiftSync/internal/invite"
	"github.com/Kerhoff/GiftSync/internal/metrics"
	"github.com/Kerhoff/GiftSync/internal/models"
	"github.com/Kerhoff/GiftSync/internal/ratelimit"
	"github.com/Kerhoff/GiftSync/internal/repository/memory"
	"github.com/Kerhoff/GiftSync/internal/service"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	updates chan tgbotapi.Update
}

func newTestServer(t *testing.T, invitesPerMinute int) *testServer {
	t.Helper()
	db := memory.New()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	m := metrics.New()

	repos := service.Repositories{
		Users:    memory.NewUserRepository(db),
		Sessions: memory.NewSessionRepository(db),
		Lists:    memory.NewListRepository(db),
		Items:    memory.NewItemRepository(db),
		Links:    memory.NewLinkRepository(db),
		Invites:  memory.NewInviteRepository(db),
		Members:  memory.NewMemberRepository(db),
	}
	authSvc := auth.NewService(repos.Users, repos.Sessions, logger, "test-secret", time.Hour)
	inviteSvc := invite.NewService(repos.Lists, repos.Invites, repos.Members, logger, m, "https://giftsync.test")
	svc := service.New(logger, m, repos, authSvc, inviteSvc)

	updates := make(chan tgbotapi.Update, 1)
	srv := NewServer(svc, logger, Options{
		InviteLimit: ratelimit.PerMinute(invitesPerMinute),
		Webhook:     func(u tgbotapi.Update) { updates <- u },
	})
	return &testServer{t: t, handler: srv.Handler(), updates: updates}
}

func (ts *testServer) do(method, path, token string, body any) (int, map[string]any) {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func (ts *testServer) doList(method, path, token string) (int, []map[string]any) {
	ts.t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var out []map[string]any
	if rec.Code == http.StatusOK {
		require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func (ts *testServer) signUp(email string) string {
	ts.t.Helper()
	status, body := ts.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": email, "password": "correct horse", "display_name": strings.Split(email, "@")[0],
	})
	require.Equal(ts.t, http.StatusCreated, status, body)
	return body["access_token"].(string)
}

func (ts *testServer) createList(token, name string) string {
	ts.t.Helper()
	status, body := ts.do(http.MethodPost, "/api/lists", token, map[string]string{"name": name})
	require.Equal(ts.t, http.StatusCreated, status, body)
	return body["id"].(string)
}

func (ts *testServer) createItem(token, listID string, body map[string]any) string {
	ts.t.Helper()
	status, out := ts.do(http.MethodPost, "/api/lists/"+listID+"/items", token, body)
	require.Equal(ts.t, http.StatusCreated, status, out)
	return out["id"].(string)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, 10)

	status, body := ts.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "giftsync_http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t, 10)
	token := ts.signUp("ana@example.com")

	status, body := ts.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ana@example.com", body["email"])
	assert.NotContains(t, body, "password_hash")

	status, body = ts.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "ANA@example.com", "password": "another password",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "An account with this email already exists", body["error"])

	status, _ = ts.do(http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email": "ana@example.com", "password": "wrong password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = ts.do(http.MethodPost, "/api/auth/signout", token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = ts.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authenticated", body["error"])
}

func TestListsAndItems(t *testing.T) {
	ts := newTestServer(t, 10)
	token := ts.signUp("ana@example.com")
	listID := ts.createList(token, "Birthday")

	status, body := ts.do(http.MethodPost, "/api/lists", token, map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "name")

	first := ts.createItem(token, listID, map[string]any{"name": "Headphones", "price_low": 50, "price_high": 120})
	second := ts.createItem(token, listID, map[string]any{"name": "Scarf", "status": "optional"})

	status, body = ts.do(http.MethodPost, "/api/lists/"+listID+"/items", token, map[string]any{
		"name": "Bad", "price_low": 200, "price_high": 100,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Low price cannot exceed high price", body["error"])

	status, items := ts.doList(http.MethodGet, "/api/lists/"+listID+"/items", token)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, items, 2)
	assert.Equal(t, first, items[0]["id"])
	assert.EqualValues(t, 1, items[0]["sort_order"])
	assert.EqualValues(t, 2, items[1]["sort_order"])

	status, body = ts.do(http.MethodPatch, "/api/items/"+first, token, map[string]any{"price_low": 500})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Low price cannot exceed high price", body["error"])

	status, body = ts.do(http.MethodPatch, "/api/items/"+first, token, map[string]any{"name": "Wireless headphones"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Wireless headphones", body["name"])

	status, body = ts.do(http.MethodPost, "/api/items/complete", token, map[string]any{
		"ids": []string{first, second}, "is_completed": true,
	})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["updated"])

	status, body = ts.do(http.MethodPost, "/api/items/"+first+"/links", token, map[string]any{
		"store_name": "Amazon", "url": "https://amazon.com/x", "price": 99, "is_best_price": true,
	})
	require.Equal(t, http.StatusCreated, status)
	linkID := body["id"].(string)

	status, _ = ts.do(http.MethodPost, "/api/items/"+first+"/links", token, map[string]any{
		"store_name": "Amazon", "url": "not a url",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, items = ts.doList(http.MethodGet, "/api/lists/"+listID+"/items", token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, items[0]["is_completed"])
	assert.Len(t, items[0]["retailer_links"], 1)

	status, _ = ts.do(http.MethodDelete, "/api/links/"+linkID, token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = ts.do(http.MethodDelete, "/api/items/"+second, token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = ts.do(http.MethodGet, "/api/lists", token, nil)
	require.Equal(t, http.StatusOK, status)
	lists := body["lists"].([]any)
	require.Len(t, lists, 1)
	assert.EqualValues(t, 1, lists[0].(map[string]any)["item_count"])
	assert.Empty(t, body["shared"])
}

func TestStrangersAndViewers(t *testing.T) {
	ts := newTestServer(t, 10)
	owner := ts.signUp("owner@example.com")
	viewer := ts.signUp("viewer@example.com")
	stranger := ts.signUp("stranger@example.com")

	listID := ts.createList(owner, "Birthday")
	itemID := ts.createItem(owner, listID, map[string]any{"name": "Lamp"})

	status, body := ts.do(http.MethodGet, "/api/lists/"+listID+"/items", stranger, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "List not found", body["error"])

	status, created := ts.do(http.MethodPost, "/api/lists/"+listID+"/invites", owner, map[string]string{
		"email": "viewer@example.com", "role": "viewer",
	})
	require.Equal(t, http.StatusCreated, status, created)
	token := created["invite_token"].(string)
	assert.Equal(t, "https://giftsync.test/invite/"+token, created["invite_url"])

	status, _ = ts.do(http.MethodPost, "/api/invites/"+token+"/accept", viewer, nil)
	require.Equal(t, http.StatusOK, status)

	status, items := ts.doList(http.MethodGet, "/api/lists/"+listID+"/items", viewer)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, items, 1)

	status, body = ts.do(http.MethodPatch, "/api/items/"+itemID, viewer, map[string]any{"name": "Mine now"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You do not have permission to edit this list", body["error"])

	status, _ = ts.do(http.MethodDelete, "/api/lists/"+listID, viewer, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = ts.do(http.MethodGet, "/api/lists", viewer, nil)
	require.Equal(t, http.StatusOK, status)
	shared := body["shared"].([]any)
	require.Len(t, shared, 1)
	assert.Equal(t, string(models.RoleViewer), shared[0].(map[string]any)["role"])
}

func TestInviteLifecycle(t *testing.T) {
	ts := newTestServer(t, 10)
	owner := ts.signUp("owner@example.com")
	friend := ts.signUp("friend@example.com")
	listID := ts.createList(owner, "Wedding")

	status, body := ts.do(http.MethodPost, "/api/lists/"+listID+"/invites", friend, map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Only the list owner can invite members", body["error"])

	status, body = ts.do(http.MethodPost, "/api/lists/"+listID+"/invites", owner, map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please enter a valid email address", body["error"])

	status, created := ts.do(http.MethodPost, "/api/lists/"+listID+"/invites", owner, map[string]string{"email": "Friend@Example.com"})
	require.Equal(t, http.StatusCreated, status)
	token := created["invite_token"].(string)

	status, body = ts.do(http.MethodPost, "/api/lists/"+listID+"/invites", owner, map[string]string{"email": "friend@example.com"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "This email has already been invited", body["error"])

	status, details := ts.do(http.MethodGet, "/api/invites/"+token, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, details["valid"])
	assert.Equal(t, "Wedding", details["list_name"])
	assert.Equal(t, "editor", details["role"])

	status, body = ts.do(http.MethodPost, "/api/invites/"+token+"/accept", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Please log in to accept this invitation", body["error"])

	status, body = ts.do(http.MethodPost, "/api/invites/"+token+"/accept", friend, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, listID, body["list_id"])
	assert.Equal(t, "Wedding", body["list_name"])

	status, body = ts.do(http.MethodPost, "/api/invites/"+token+"/accept", friend, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "This invitation has already been used", body["error"])

	status, details = ts.do(http.MethodGet, "/api/invites/"+token, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, details["valid"])
	assert.Equal(t, "This invitation has already been used", details["error"])

	status, details = ts.do(http.MethodGet, "/api/invites/unknown", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Invalid invitation", details["error"])

	// The editor may now change items.
	itemID := ts.createItem(friend, listID, map[string]any{"name": "Vase"})
	status, _ = ts.do(http.MethodDelete, "/api/items/"+itemID, friend, nil)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestInviteRateLimit(t *testing.T) {
	ts := newTestServer(t, 1)
	owner := ts.signUp("owner@example.com")
	listID := ts.createList(owner, "Wedding")

	status, _ := ts.do(http.MethodPost, "/api/lists/"+listID+"/invites", owner, map[string]string{"email": "a@example.com"})
	require.Equal(t, http.StatusCreated, status)

	status, body := ts.do(http.MethodPost, "/api/lists/"+listID+"/invites", owner, map[string]string{"email": "b@example.com"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, body["error"], "Too many invitations")
}

func TestRequiresAuthentication(t *testing.T) {
	ts := newTestServer(t, 10)

	for _, path := range []string{"/api/lists", "/api/auth/me"} {
		status, body := ts.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, "Not authenticated", body["error"])
	}

	status, _ := ts.do(http.MethodGet, "/api/lists", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTelegramWebhookForwardsUpdates(t *testing.T) {
	ts := newTestServer(t, 10)

	status, _ := ts.do(http.MethodPost, "/telegram/webhook", "", map[string]any{
		"update_id": 99,
		"message":   map[string]any{"message_id": 1, "text": "/help", "chat": map[string]any{"id": 5}},
	})
	require.Equal(t, http.StatusOK, status)

	select {
	case u := <-ts.updates:
		assert.Equal(t, 99, u.UpdateID)
		require.NotNil(t, u.Message)
		assert.Equal(t, "/help", u.Message.Text)
	case <-time.After(time.Second):
		t.Fatal("update was not forwarded")
	}
}
