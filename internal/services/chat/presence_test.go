package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-lostfound/internal/realtime"
)

func TestPresenceTracker(t *testing.T) {
	hub := realtime.NewHub(16)
	defer hub.Close()
	sub := hub.Subscribe(realtime.Topic("c1"))
	defer sub.Close()
	p := NewPresenceTracker(hub)

	p.Join("c1", "bob", false)
	p.Join("c1", "alice", false)
	p.Join("c1", "alice", false)
	p.Track("c1", "alice", true)
	p.Track("c1", "alice", true) // unchanged
	p.Track("c1", "carol", true) // never joined

	assert.Equal(t, []realtime.PresenceState{
		{UserID: "alice", Typing: true},
		{UserID: "bob", Typing: false},
	}, p.Snapshot("c1"))

	p.Leave("c1", "alice")
	assert.Len(t, p.Snapshot("c1"), 2, "alice still has a session open")
	p.Leave("c1", "alice")
	assert.Equal(t, []realtime.PresenceState{{UserID: "bob"}}, p.Snapshot("c1"))

	// join, join, join, track, leave, leave
	require.Len(t, sub.Events(), 6)
	var last realtime.Event
	for len(sub.Events()) > 0 {
		last = <-sub.Events()
	}
	assert.Equal(t, realtime.EventPresenceSync, last.Type)
	assert.Equal(t, []realtime.PresenceState{{UserID: "bob"}}, last.Presence)
}

func TestOthersTyping(t *testing.T) {
	states := []realtime.PresenceState{{UserID: "a", Typing: true}, {UserID: "b"}}
	assert.False(t, OthersTyping(states, "a"))
	assert.True(t, OthersTyping(states, "b"))
	assert.False(t, OthersTyping(nil, "a"))
}
