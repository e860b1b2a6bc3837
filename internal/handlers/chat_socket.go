package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/middleware"
	"github.com/iyunix/go-lostfound/internal/ratelimit"
	"github.com/iyunix/go-lostfound/internal/realtime"
	"github.com/iyunix/go-lostfound/internal/services/chat"
)

const (
	frameSend           = "send"
	frameTyping         = "typing"
	frameRead           = "read"
	frameSnapshot       = "snapshot"
	frameMessage        = "message"
	frameMessageUpdated = "message_updated"
	frameAck            = "ack"
	frameError          = "error"
)

type inboundFrame struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	ClientKey string `json:"client_key,omitempty"`
}

type outboundFrame struct {
	Type      string           `json:"type"`
	Messages  []domain.Message `json:"messages,omitempty"`
	Message   *domain.Message  `json:"message,omitempty"`
	Typing    *bool            `json:"typing,omitempty"`
	ClientKey string           `json:"client_key,omitempty"`
	Title     string           `json:"title,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// ChatSocketHandler serves one live chat session per websocket.
type ChatSocketHandler struct {
	chat     *chat.Service
	limiter  ratelimit.Limiter
	upgrader websocket.Upgrader
}

func NewChatSocketHandler(cs *chat.Service, limiter ratelimit.Limiter, allowedOrigins []string) *ChatSocketHandler {
	return &ChatSocketHandler{
		chat:    cs,
		limiter: limiter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

// Serve opens the session before upgrading, so a non-participant gets a
// plain HTTP error instead of a socket that closes at once.
func (h *ChatSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())
	sess, err := h.chat.OpenSession(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer sess.Close()

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ChatSocket] Upgrade failed for user %s: %v", userID, err)
		return
	}
	conn := realtime.NewConnection(userID, ws)
	conn.Start()
	defer conn.Close(websocket.CloseNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	typing := sess.OtherTyping()
	if err := conn.SendJSON(outboundFrame{Type: frameSnapshot, Messages: sess.Snapshot(), Typing: &typing}); err != nil {
		return
	}

	go func() {
		err := sess.Run(ctx, func(u chat.Update) error { return conn.SendJSON(updateFrame(u)) })
		if err != nil && ctx.Err() == nil {
			log.Printf("[ChatSocket] Session for user %s in %s ended: %v", userID, sess.Conversation().ID, err)
			conn.Close(websocket.CloseGoingAway, "session ended")
		}
	}()

	h.readLoop(ctx, conn, sess)
}

func (h *ChatSocketHandler) readLoop(ctx context.Context, conn *realtime.Connection, sess *chat.Session) {
	for {
		var in inboundFrame
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[ChatSocket] Read error for user %s: %v", sess.UserID(), err)
			}
			return
		}

		switch in.Type {
		case frameSend:
			h.send(ctx, conn, sess, in)
		case frameTyping:
			sess.Keystroke()
		case frameRead:
			if _, err := sess.MarkRead(ctx); err != nil {
				h.reply(conn, in.ClientKey, err)
			}
		default:
			_ = conn.SendJSON(outboundFrame{Type: frameError, Title: "Error", Error: "Unknown frame type"})
		}
	}
}

func (h *ChatSocketHandler) send(ctx context.Context, conn *realtime.Connection, sess *chat.Session, in inboundFrame) {
	if h.limiter != nil {
		if ok, _ := h.limiter.Allow("user:" + sess.UserID()); !ok {
			_ = conn.SendJSON(outboundFrame{
				Type:      frameError,
				ClientKey: in.ClientKey,
				Title:     "Error sending message",
				Error:     "You are sending messages too quickly",
			})
			return
		}
	}
	msg, err := sess.Send(ctx, in.Content, in.ClientKey)
	if err != nil {
		h.reply(conn, in.ClientKey, err)
		return
	}
	_ = conn.SendJSON(outboundFrame{Type: frameAck, ClientKey: in.ClientKey, Message: msg})
}

func (h *ChatSocketHandler) reply(conn *realtime.Connection, clientKey string, err error) {
	_, body := describeError(err)
	_ = conn.SendJSON(outboundFrame{Type: frameError, ClientKey: clientKey, Title: body.Title, Error: body.Error})
}

func updateFrame(u chat.Update) outboundFrame {
	switch u.Type {
	case chat.UpdateMessageUpdated:
		return outboundFrame{Type: frameMessageUpdated, Message: u.Message}
	case chat.UpdateTyping:
		typing := u.Typing
		return outboundFrame{Type: frameTyping, Typing: &typing}
	default:
		return outboundFrame{Type: frameMessage, Message: u.Message}
	}
}
