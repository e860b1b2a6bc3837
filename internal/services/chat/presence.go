package chat

import (
	"sort"
	"sync"

	"github.com/iyunix/go-lostfound/internal/realtime"
)

type presenceEntry struct {
	typing bool
	refs   int
}

// PresenceTracker holds the ephemeral {user_id, typing} state of every open
// conversation. A user with several sessions in one conversation counts once;
// the last write wins. Every change publishes a full snapshot on the feed.
type PresenceTracker struct {
	mu    sync.Mutex
	feed  Feed
	rooms map[string]map[string]*presenceEntry
}

func NewPresenceTracker(feed Feed) *PresenceTracker {
	return &PresenceTracker{
		feed:  feed,
		rooms: make(map[string]map[string]*presenceEntry),
	}
}

// Join registers one session of userID in the conversation.
func (p *PresenceTracker) Join(conversationID, userID string, typing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	room := p.rooms[conversationID]
	if room == nil {
		room = make(map[string]*presenceEntry)
		p.rooms[conversationID] = room
	}
	entry := room[userID]
	if entry == nil {
		entry = &presenceEntry{}
		room[userID] = entry
	}
	entry.refs++
	entry.typing = typing
	p.publishLocked(conversationID)
}

// Track updates userID's typing flag. Unknown users and unchanged values are
// ignored.
func (p *PresenceTracker) Track(conversationID, userID string, typing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry := p.rooms[conversationID][userID]
	if entry == nil || entry.typing == typing {
		return
	}
	entry.typing = typing
	p.publishLocked(conversationID)
}

// Leave releases one session. The user disappears from the snapshot when
// their last session leaves.
func (p *PresenceTracker) Leave(conversationID, userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	room := p.rooms[conversationID]
	entry := room[userID]
	if entry == nil {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(room, userID)
		if len(room) == 0 {
			delete(p.rooms, conversationID)
		}
	}
	p.publishLocked(conversationID)
}

// Snapshot returns the current state ordered by user id.
func (p *PresenceTracker) Snapshot(conversationID string) []realtime.PresenceState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked(conversationID)
}

func (p *PresenceTracker) snapshotLocked(conversationID string) []realtime.PresenceState {
	room := p.rooms[conversationID]
	states := make([]realtime.PresenceState, 0, len(room))
	for userID, entry := range room {
		states = append(states, realtime.PresenceState{UserID: userID, Typing: entry.typing})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].UserID < states[j].UserID })
	return states
}

// publishLocked runs under p.mu so snapshots reach the feed in the order the
// state changed.
func (p *PresenceTracker) publishLocked(conversationID string) {
	p.feed.Publish(realtime.Topic(conversationID), realtime.Event{
		Type:           realtime.EventPresenceSync,
		ConversationID: conversationID,
		Presence:       p.snapshotLocked(conversationID),
	})
}

// OthersTyping reports whether anyone other than userID is typing in states.
func OthersTyping(states []realtime.PresenceState, userID string) bool {
	for _, s := range states {
		if s.UserID != userID && s.Typing {
			return true
		}
	}
	return false
}
