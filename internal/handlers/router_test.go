package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/idempotency"
	"github.com/iyunix/go-lostfound/internal/realtime"
	"github.com/iyunix/go-lostfound/internal/repository/conversation"
	"github.com/iyunix/go-lostfound/internal/repository/item"
	"github.com/iyunix/go-lostfound/internal/repository/message"
	"github.com/iyunix/go-lostfound/internal/repository/testdb"
	"github.com/iyunix/go-lostfound/internal/repository/user"
	"github.com/iyunix/go-lostfound/internal/repository/verification"
	"github.com/iyunix/go-lostfound/internal/services"
	"github.com/iyunix/go-lostfound/internal/services/admin_services"
	"github.com/iyunix/go-lostfound/internal/services/chat"
	"github.com/iyunix/go-lostfound/internal/services/user_services"
)

const adminEmail = "admin@campus.test"

// codeInbox keeps the last code sent to each address.
type codeInbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *codeInbox) SendCode(_ context.Context, email string, _ domain.VerificationCodeType, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email] = code
	return nil
}

func (c *codeInbox) code(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email]
}

func newTestServer(t *testing.T) *httptest.Server {
	srv, _ := newTestServerWithInbox(t)
	return srv
}

func newTestServerWithInbox(t *testing.T) (*httptest.Server, *codeInbox) {
	t.Helper()
	db := testdb.New(t)
	logger := &services.NoOpLogger{}

	userRepo := user.NewGormUserRepository(db)
	itemRepo := item.NewItemRepository(db)
	hub := realtime.NewHub(realtime.DefaultBuffer)
	t.Cleanup(hub.Close)

	chatConfig := chat.DefaultConfig()
	chatConfig.TypingTimeout = 50 * time.Millisecond
	cs, err := chat.NewService(chatConfig, chat.Dependencies{
		Conversations: conversation.NewConversationRepository(db),
		Messages:      message.NewMessageRepository(db),
		Items:         itemRepo,
		Users:         userRepo,
		Feed:          hub,
		Idempotency:   idempotency.NewMemoryStore(),
		Logger:        logger,
	})
	require.NoError(t, err)

	users := user_services.NewUserService(userRepo, "test-secret", adminEmail, logger)
	items := services.NewItemService(itemRepo, nil, logger)
	inbox := &codeInbox{codes: make(map[string]string)}
	codes := user_services.NewVerificationService(userRepo, verification.NewGormVerificationRepository(db), inbox, users.AuthService, logger)

	router := NewRouter(RouterDeps{
		Auth:   NewAuthHandler(users, codes, false),
		Items:  NewItemHandler(items),
		Chat:   NewChatHandler(cs),
		Socket: NewChatSocketHandler(cs, nil, []string{"*"}),
		Admin:  NewAdminHandler(admin_services.NewAdminService(userRepo, itemRepo, items)),
		Logs:   NewLogHandler(nil),
		Tokens: users,
		Users:  userRepo,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, inbox
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func signUp(t *testing.T, srv *httptest.Server, email string) (token, userID string) {
	t.Helper()
	resp, body := call(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "secret123", "full_name": "Test User",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	u := body["user"].(map[string]interface{})
	return body["token"].(string), u["id"].(string)
}

func reportItem(t *testing.T, srv *httptest.Server, token string) string {
	t.Helper()
	resp, body := call(t, srv, http.MethodPost, "/api/items", token, map[string]string{
		"building":    "Library",
		"classroom":   "L201",
		"description": "Black umbrella with a wooden handle",
		"category":    string(domain.CategoryAccessories),
		"date":        "2026-10-01",
		"time":        "14:30",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	return body["id"].(string)
}

func TestClaimFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	finderToken, _ := signUp(t, srv, "finder@campus.test")
	claimerToken, _ := signUp(t, srv, "claimer@campus.test")
	outsiderToken, _ := signUp(t, srv, "outsider@campus.test")
	itemID := reportItem(t, srv, finderToken)

	resp, body := call(t, srv, http.MethodPost, "/api/items/"+itemID+"/claim", finderToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Cannot claim", body["title"])

	resp, body = call(t, srv, http.MethodPost, "/api/items/"+itemID+"/claim", claimerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	convID := body["id"].(string)

	resp, again := call(t, srv, http.MethodPost, "/api/items/"+itemID+"/claim", claimerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, convID, again["id"])

	resp, body = call(t, srv, http.MethodPost, "/api/conversations/"+convID+"/messages", claimerToken,
		map[string]string{"content": "  I think that's mine  "})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, "I think that's mine", body["content"])

	resp, body = call(t, srv, http.MethodPost, "/api/conversations/"+convID+"/messages", claimerToken,
		map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Error sending message", body["title"])

	resp, _ = call(t, srv, http.MethodGet, "/api/conversations/"+convID+"/messages", outsiderToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = call(t, srv, http.MethodPost, "/api/conversations/"+convID+"/read", finderToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["updated"])

	resp, body = call(t, srv, http.MethodDelete, "/api/items/"+itemID, finderToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode, body)

	resp, body = call(t, srv, http.MethodPost, "/api/conversations/"+convID+"/messages", claimerToken,
		map[string]string{"content": "Still there?"})
	assert.Equal(t, http.StatusGone, resp.StatusCode, body)
}

func TestRouterGuards(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := call(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := call(t, srv, http.MethodGet, "/api/conversations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Not signed in", body["title"])

	userToken, _ := signUp(t, srv, "student@campus.test")
	resp, _ = call(t, srv, http.MethodGet, "/api/admin/stats", userToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	adminToken, _ := signUp(t, srv, adminEmail)
	resp, body = call(t, srv, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["total_users"])

	resp, body = call(t, srv, http.MethodGet, "/api/nowhere", userToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", body["title"])
}

func dialChat(t *testing.T, srv *httptest.Server, convID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/conversations/" + convID + "/ws"
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	ws, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { ws.Close() })
	return ws
}

// nextFrame skips frames until one of type want arrives.
func nextFrame(t *testing.T, ws *websocket.Conn, want string) outboundFrame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var f outboundFrame
		require.NoError(t, ws.ReadJSON(&f))
		if f.Type == want {
			return f
		}
	}
}

func TestChatSocketDeliversLiveMessages(t *testing.T) {
	srv := newTestServer(t)
	finderToken, _ := signUp(t, srv, "finder@campus.test")
	claimerToken, claimerID := signUp(t, srv, "claimer@campus.test")
	outsiderToken, _ := signUp(t, srv, "outsider@campus.test")
	itemID := reportItem(t, srv, finderToken)

	_, body := call(t, srv, http.MethodPost, "/api/items/"+itemID+"/claim", claimerToken, nil)
	convID := body["id"].(string)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/conversations/" + convID + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": []string{"Bearer " + outsiderToken}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	finder := dialChat(t, srv, convID, finderToken)
	claimer := dialChat(t, srv, convID, claimerToken)
	assert.Empty(t, nextFrame(t, finder, frameSnapshot).Messages)
	nextFrame(t, claimer, frameSnapshot)

	require.NoError(t, claimer.WriteJSON(inboundFrame{Type: frameTyping}))
	typing := nextFrame(t, finder, frameTyping)
	require.NotNil(t, typing.Typing)
	assert.True(t, *typing.Typing)

	require.NoError(t, claimer.WriteJSON(inboundFrame{Type: frameSend, Content: "Is it the black one?", ClientKey: "k1"}))
	ack := nextFrame(t, claimer, frameAck)
	assert.Equal(t, "k1", ack.ClientKey)
	require.NotNil(t, ack.Message)

	live := nextFrame(t, finder, frameMessage)
	require.NotNil(t, live.Message)
	assert.Equal(t, ack.Message.ID, live.Message.ID)
	assert.Equal(t, claimerID, live.Message.SenderID)

	require.NoError(t, claimer.WriteJSON(inboundFrame{Type: "shout"}))
	bad := nextFrame(t, claimer, frameError)
	assert.Equal(t, "Unknown frame type", bad.Error)
}

func TestPreflightFromAllowedOrigin(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/conversations", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://lostfound.campus.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://lostfound.campus.test", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestLoginWithEmailCode(t *testing.T) {
	srv, inbox := newTestServerWithInbox(t)

	resp, body := call(t, srv, http.MethodPost, "/api/auth/otp", "", map[string]string{"email": "New@Campus.test"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode, body)
	code := inbox.code("new@campus.test")
	require.Len(t, code, 6)

	resp, body = call(t, srv, http.MethodPost, "/api/auth/otp", "", map[string]string{"email": "new@campus.test"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Slow down", body["title"])

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	resp, body = call(t, srv, http.MethodPost, "/api/auth/otp/verify", "", map[string]string{"email": "new@campus.test", "code": wrong})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Verification failed", body["title"])

	resp, body = call(t, srv, http.MethodPost, "/api/auth/otp/verify", "", map[string]string{"email": "new@campus.test", "code": code})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	token := body["token"].(string)
	assert.NotEmpty(t, resp.Cookies())

	resp, body = call(t, srv, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "new@campus.test", body["email"])
}

func TestPasswordResetOverHTTP(t *testing.T) {
	srv, inbox := newTestServerWithInbox(t)
	signUp(t, srv, "sam@campus.test")

	resp, _ := call(t, srv, http.MethodPost, "/api/auth/forgot", "", map[string]string{"email": "ghost@campus.test"})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Empty(t, inbox.code("ghost@campus.test"))

	resp, _ = call(t, srv, http.MethodPost, "/api/auth/forgot", "", map[string]string{"email": "sam@campus.test"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	code := inbox.code("sam@campus.test")
	require.Len(t, code, 6)

	resp, body := call(t, srv, http.MethodPost, "/api/auth/reset", "", map[string]string{"email": "sam@campus.test", "code": code, "password": "abc"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	resp, body = call(t, srv, http.MethodPost, "/api/auth/reset", "", map[string]string{"email": "sam@campus.test", "code": code, "password": "brand-new-pass"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, _ = call(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "sam@campus.test", "password": "brand-new-pass"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = call(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "sam@campus.test", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
