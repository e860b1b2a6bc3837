package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/iyunix/go-lostfound/internal/domain"
	"github.com/iyunix/go-lostfound/internal/realtime"
)

// ErrSessionClosed is returned by Session methods after Close.
var ErrSessionClosed = errors.New("chat session closed")

type UpdateType string

const (
	UpdateMessage        UpdateType = "message"
	UpdateMessageUpdated UpdateType = "message_updated"
	UpdateTyping         UpdateType = "typing"
)

// Update is a change to the session's view, emitted by Run.
type Update struct {
	Type    UpdateType
	Message *domain.Message
	Typing  bool
}

// Session is one user's open view of a conversation: an ordered, de-duplicated
// message list kept current from the feed, the other participant's typing
// state and this user's own typing debouncer. Events arriving after Close are
// ignored.
type Session struct {
	service      *Service
	conversation *domain.Conversation
	userID       string
	sub          *realtime.Subscription
	typing       *TypingDebouncer

	alive     atomic.Bool
	closeOnce sync.Once

	mu          sync.Mutex
	messages    []domain.Message
	known       map[string]struct{}
	otherTyping bool
}

// OpenSession subscribes to the conversation's feed, loads the history, marks
// the other participant's messages read and joins presence with typing off.
// The subscription is taken before the history is read so nothing published
// in between is missed; overlap is removed by id.
func (s *Service) OpenSession(ctx context.Context, conversationID, userID string) (*Session, error) {
	conv, err := s.participantConversation(ctx, OpOpen, conversationID, userID)
	if err != nil {
		return nil, err
	}

	sub := s.feed.Subscribe(realtime.Topic(conv.ID))

	history, err := s.messages.FindByConversationID(ctx, conv.ID)
	if err != nil {
		sub.Close()
		return nil, NewStoreError(OpOpen, "Could not load messages", err)
	}

	sess := &Session{
		service:      s,
		conversation: conv,
		userID:       userID,
		sub:          sub,
		messages:     history,
		known:        make(map[string]struct{}, len(history)),
	}
	for _, m := range history {
		sess.known[m.ID] = struct{}{}
	}
	sess.typing = NewTypingDebouncer(s.config.TypingTimeout, func(typing bool) {
		s.presence.Track(conv.ID, userID, typing)
	})
	sess.alive.Store(true)

	if _, err := s.MarkRead(ctx, conv.ID, userID); err != nil {
		s.logger.Warn("mark read on open failed", "conversation_id", conv.ID, "user_id", userID, "error", err)
	}

	s.presence.Join(conv.ID, userID, false)
	s.metrics.SessionOpened()
	s.logger.Debug("chat session opened", "conversation_id", conv.ID, "user_id", userID, "history", len(history))
	return sess, nil
}

func (sess *Session) Conversation() *domain.Conversation { return sess.conversation }

func (sess *Session) UserID() string { return sess.userID }

// Snapshot returns a copy of the current message list in display order.
func (sess *Session) Snapshot() []domain.Message {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]domain.Message, len(sess.messages))
	copy(out, sess.messages)
	return out
}

// OtherTyping reports whether the other participant is currently typing.
func (sess *Session) OtherTyping() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.otherTyping
}

// Run applies feed events to the view and hands each resulting change to
// emit. It returns when ctx ends, the session closes, emit fails, or the
// feed drops the subscription.
func (sess *Session) Run(ctx context.Context, emit func(Update) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sess.sub.Events():
			if !ok {
				if err := sess.sub.Err(); err != nil {
					return err
				}
				return ErrSessionClosed
			}
			if !sess.alive.Load() {
				return ErrSessionClosed
			}
			update, markRead := sess.apply(ev)
			if markRead {
				sess.markReadLive(ctx)
			}
			if update == nil {
				continue
			}
			if err := emit(*update); err != nil {
				return err
			}
		}
	}
}

// apply folds one event into the view. It reports the update to emit, if
// any, and whether the event calls for a mark-read.
func (sess *Session) apply(ev realtime.Event) (*Update, bool) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch ev.Type {
	case realtime.EventMessageInserted:
		if ev.Message == nil {
			return nil, false
		}
		if !sess.insertLocked(*ev.Message) {
			return nil, false
		}
		m := *ev.Message
		return &Update{Type: UpdateMessage, Message: &m}, m.SenderID != sess.userID

	case realtime.EventMessageUpdated:
		if ev.Message == nil {
			return nil, false
		}
		if _, ok := sess.known[ev.Message.ID]; !ok {
			// The receipt overtook the insert; the update carries the full row.
			sess.insertLocked(*ev.Message)
			m := *ev.Message
			return &Update{Type: UpdateMessage, Message: &m}, false
		}
		for i := range sess.messages {
			if sess.messages[i].ID != ev.Message.ID {
				continue
			}
			if sess.messages[i].Read || !ev.Message.Read {
				return nil, false
			}
			sess.messages[i].MergeRead(ev.Message)
			m := sess.messages[i]
			return &Update{Type: UpdateMessageUpdated, Message: &m}, false
		}
		return nil, false

	case realtime.EventPresenceSync:
		typing := OthersTyping(ev.Presence, sess.userID)
		if typing == sess.otherTyping {
			return nil, false
		}
		sess.otherTyping = typing
		return &Update{Type: UpdateTyping, Typing: typing}, false
	}
	return nil, false
}

// insertLocked adds m in (created_at, id) order unless its id is already
// present. Live messages normally land at the end.
func (sess *Session) insertLocked(m domain.Message) bool {
	if _, dup := sess.known[m.ID]; dup {
		return false
	}
	sess.known[m.ID] = struct{}{}

	n := len(sess.messages)
	if n == 0 || sess.messages[n-1].Before(&m) {
		sess.messages = append(sess.messages, m)
		return true
	}
	i := sort.Search(n, func(i int) bool { return m.Before(&sess.messages[i]) })
	sess.messages = append(sess.messages, domain.Message{})
	copy(sess.messages[i+1:], sess.messages[i:])
	sess.messages[i] = m
	return true
}

// markReadLive runs on the Run loop; a failure is logged and the update is
// still emitted.
func (sess *Session) markReadLive(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, sess.service.config.BackgroundTimeout)
	defer cancel()
	if _, err := sess.service.MarkRead(ctx, sess.conversation.ID, sess.userID); err != nil {
		sess.service.logger.Warn("mark read on live message failed",
			"conversation_id", sess.conversation.ID, "user_id", sess.userID, "error", err)
	}
}

// Send resets this user's typing signal, then sends. The persisted message
// joins the local view at once; the feed's copy of it is dropped as a
// duplicate when it arrives.
func (sess *Session) Send(ctx context.Context, content, clientKey string) (*domain.Message, error) {
	if !sess.alive.Load() {
		return nil, ErrSessionClosed
	}
	sess.typing.Flush()

	msg, err := sess.service.SendMessage(ctx, SendInput{
		ConversationID: sess.conversation.ID,
		SenderID:       sess.userID,
		Content:        content,
		ClientKey:      clientKey,
	})
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.insertLocked(*msg)
	sess.mu.Unlock()
	return msg, nil
}

// Keystroke feeds the typing debouncer.
func (sess *Session) Keystroke() {
	if !sess.alive.Load() {
		return
	}
	sess.typing.Keystroke()
}

// MarkRead marks the other participant's messages read on demand.
func (sess *Session) MarkRead(ctx context.Context) (int, error) {
	if !sess.alive.Load() {
		return 0, ErrSessionClosed
	}
	return sess.service.MarkRead(ctx, sess.conversation.ID, sess.userID)
}

// Close stops event handling, resets this session's typing signal, leaves
// presence and unsubscribes. Safe to call more than once.
func (sess *Session) Close() {
	sess.closeOnce.Do(func() {
		sess.alive.Store(false)
		sess.typing.Close()
		sess.service.presence.Leave(sess.conversation.ID, sess.userID)
		sess.sub.Close()
		sess.service.metrics.SessionClosed()
		sess.service.logger.Debug("chat session closed", "conversation_id", sess.conversation.ID, "user_id", sess.userID)
	})
}
