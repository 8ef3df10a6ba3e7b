package runtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-relay/domain/event"
)

type nopSink struct{ id int }

func (nopSink) Consume(e event.Event) error { return nil }

func TestRegistry_AddSession_And_Join(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()
	sink := nopSink{id: 1}

	// Given no session is connected
	req.Zero(registry.SessionCount())
	req.Zero(registry.RoomCount("General"))

	// When a session connects and joins a room
	registry.AddSession(sessionID, sink)
	registry.JoinRoom(sessionID, "General")

	// Then it is counted globally and in the room
	req.Equal(1, registry.SessionCount())
	req.Equal(1, registry.RoomCount("General"))
	req.Equal(1, registry.RoomTotal())
	req.Len(registry.SinksForRoom("General"), 1)
	req.Contains(registry.SinksForRoom("General"), sink)
}

func TestRegistry_SinksForRoom_Excludes(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice, bob := uuid.NewString(), uuid.NewString()
	aliceSink, bobSink := nopSink{id: 1}, nopSink{id: 2}

	registry.AddSession(alice, aliceSink)
	registry.AddSession(bob, bobSink)
	registry.JoinRoom(alice, "General")
	registry.JoinRoom(bob, "General")

	// When resolving the room minus one member
	sinks := registry.SinksForRoom("General", alice)

	// Then only the other member's sink remains
	req.Len(sinks, 1)
	req.Contains(sinks, bobSink)
}

func TestRegistry_LeaveRoom_RemovesEmptyRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sessionID := uuid.NewString()

	registry.AddSession(sessionID, nopSink{})
	registry.JoinRoom(sessionID, "Lobby")

	// When the last member leaves
	registry.LeaveRoom(sessionID, "Lobby")

	// Then the room entry is gone and no sinks resolve
	req.Zero(registry.RoomCount("Lobby"))
	req.Zero(registry.RoomTotal())
	req.Nil(registry.SinksForRoom("Lobby"))

	// And the session itself is still connected
	req.Equal(1, registry.SessionCount())
}

func TestRegistry_RemoveSession_SweepsMembership(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice, bob := uuid.NewString(), uuid.NewString()

	registry.AddSession(alice, nopSink{id: 1})
	registry.AddSession(bob, nopSink{id: 2})
	registry.JoinRoom(alice, "General")
	registry.JoinRoom(bob, "General")

	// When a member disconnects without leaving first
	registry.RemoveSession(alice)

	// Then both the session and its membership are gone
	req.Equal(1, registry.SessionCount())
	req.Equal(1, registry.RoomCount("General"))
	_, ok := registry.SinkOf(alice)
	req.False(ok)
}

func TestRegistry_AllSinks_Excludes(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice, bob := uuid.NewString(), uuid.NewString()
	aliceSink, bobSink := nopSink{id: 1}, nopSink{id: 2}

	registry.AddSession(alice, aliceSink)
	registry.AddSession(bob, bobSink)

	req.Len(registry.AllSinks(), 2)

	sinks := registry.AllSinks(bob)
	req.Len(sinks, 1)
	req.Contains(sinks, aliceSink)
}
