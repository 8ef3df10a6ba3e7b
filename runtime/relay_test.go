package runtime

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/repositories"
)

// recordingSink captures every event delivered to one session.
type recordingSink struct {
	events []event.Event
}

func (s *recordingSink) Consume(e event.Event) error {
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) reset() { s.events = nil }

func (s *recordingSink) ofKind(name string) []event.Event {
	var matched []event.Event
	for _, e := range s.events {
		if e.Name() == name {
			matched = append(matched, e)
		}
	}
	return matched
}

func newTestRelay(t *testing.T) *Relay {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	history := repositories.NewHistoryRepository(db, slog.Default(), 0)
	return NewRelay(slog.Default(), NewRegistry(), history, observability.NewMonitor(slog.Default()))
}

// connect attaches a fresh session with a recording sink.
func connect(relay *Relay, username string) (*domain.Session, *recordingSink) {
	session := domain.NewSession(uuid.NewString(), username)
	sink := &recordingSink{}
	relay.Connect(session, sink)
	return session, sink
}

func TestRelay_ConnectBroadcastsUserCount(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)

	// When two sessions connect
	_, first := connect(relay, "")
	_, second := connect(relay, "")

	// Then the first one saw both counts and the second the latest
	req.Equal([]event.Event{event.UserCount(1), event.UserCount(2)}, first.events)
	req.Equal([]event.Event{event.UserCount(2)}, second.events)
}

func TestRelay_CountConservation(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)

	// Given N connects and M disconnects
	_, observerSink := connect(relay, "")
	var sessions []*domain.Session
	for i := 0; i < 4; i++ {
		s, _ := connect(relay, "")
		sessions = append(sessions, s)
	}
	for _, s := range sessions[:2] {
		relay.Disconnect(s)
	}

	// Then the last count the observer saw equals N - M
	counts := observerSink.ofKind("UserCount")
	req.NotEmpty(counts)
	req.Equal(event.UserCount(3), counts[len(counts)-1])
}

func TestRelay_JoinRoom_DefaultsWhenBlank(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)
	session, sink := connect(relay, "Alice")

	room, err := relay.JoinRoom(session, "  ")

	req.NoError(err)
	req.Equal(domain.DefaultRoom, room)
	req.Equal(domain.DefaultRoom, session.Room)
	req.Equal([]event.Event{event.RoomJoined{Room: domain.DefaultRoom}}, sink.ofKind("RoomJoined"))
}

func TestRelay_JoinRoom_Idempotent(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)
	session, sink := connect(relay, "Alice")

	_, err := relay.JoinRoom(session, "General")
	req.NoError(err)
	before := len(sink.events)

	// When the same room is joined again
	room, err := relay.JoinRoom(session, "General")

	// Then nothing is emitted the second time
	req.NoError(err)
	req.Equal("General", room)
	req.Len(sink.events, before)
}

func TestRelay_JoinRoom_TransitionEffects(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)

	alice, aliceSink := connect(relay, "Alice")
	bob, bobSink := connect(relay, "Bob")
	clara, claraSink := connect(relay, "Clara")

	_, err := relay.JoinRoom(alice, "X")
	req.NoError(err)
	_, err = relay.JoinRoom(bob, "X")
	req.NoError(err)
	_, err = relay.JoinRoom(clara, "Y")
	req.NoError(err)
	aliceSink.reset()
	bobSink.reset()
	claraSink.reset()

	// When Alice moves from X to Y
	_, err = relay.JoinRoom(alice, "Y")
	req.NoError(err)

	// Then the remaining X member sees the departure and the new X count
	req.Equal([]event.Event{
		event.System{Text: "Alice left #X"},
		event.RoomUserCount{Room: "X", Count: 1},
	}, bobSink.events)

	// And the Y member sees the arrival and the new Y count
	req.Equal([]event.Event{
		event.System{Text: "Alice joined #Y"},
		event.RoomUserCount{Room: "Y", Count: 2},
	}, claraSink.events)

	// And Alice gets the confirmation and the count, but no system
	// messages about herself
	req.Empty(aliceSink.ofKind("system"))
	req.Equal([]event.Event{event.RoomJoined{Room: "Y"}}, aliceSink.ofKind("RoomJoined"))
	req.Equal([]event.Event{event.RoomUserCount{Room: "Y", Count: 2}}, aliceSink.ofKind("RoomUserCount"))
}

func TestRelay_SingleRoomMembership(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)
	registry := relay.registry

	session, _ := connect(relay, "Alice")
	rooms := []string{"A", "B", "C"}
	for _, room := range rooms {
		_, err := relay.JoinRoom(session, room)
		req.NoError(err)
	}

	// The session only counts in its last room
	req.Equal("C", session.Room)
	req.Zero(registry.RoomCount("A"))
	req.Zero(registry.RoomCount("B"))
	req.Equal(1, registry.RoomCount("C"))
}

func TestRelay_PostMessage_RequiresIdentity(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)
	anonymous, anonymousSink := connect(relay, "")
	_, err := relay.JoinRoom(anonymous, "General")
	req.NoError(err)
	anonymousSink.reset()

	// When an anonymous session posts
	err = relay.PostMessage(anonymous, "hello")

	// Then the post is rejected with no broadcast and no persistence
	req.ErrorIs(err, errors.ErrNoIdentity)
	req.Empty(anonymousSink.events)

	member, memberSink := connect(relay, "Alice")
	_, err = relay.JoinRoom(member, "General")
	req.NoError(err)
	req.Empty(memberSink.ofKind("chat message"), "nothing was persisted to replay")
}

func TestRelay_PostMessage_BroadcastsToRoomIncludingSender(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)

	alice, aliceSink := connect(relay, "Alice")
	bob, bobSink := connect(relay, "Bob")
	outsider, outsiderSink := connect(relay, "Eve")
	_, err := relay.JoinRoom(alice, "General")
	req.NoError(err)
	_, err = relay.JoinRoom(bob, "General")
	req.NoError(err)
	_, err = relay.JoinRoom(outsider, "Elsewhere")
	req.NoError(err)
	aliceSink.reset()
	bobSink.reset()
	outsiderSink.reset()

	req.NoError(relay.PostMessage(alice, "hi"))

	for _, sink := range []*recordingSink{aliceSink, bobSink} {
		chats := sink.ofKind("chat message")
		req.Len(chats, 1)
		chat := chats[0].(event.ChatMessage)
		req.Equal("hi", chat.Text)
		req.Equal("Alice", chat.User)
		req.Equal("General", chat.Room)
		req.NotZero(chat.Ts)
	}
	req.Empty(outsiderSink.events)
}

func TestRelay_PostMessage_UsesSessionColor(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)
	alice, aliceSink := connect(relay, "Alice")
	_, err := relay.JoinRoom(alice, "General")
	req.NoError(err)
	aliceSink.reset()

	relay.SetColor(alice, "#e91e63")
	req.NoError(relay.PostMessage(alice, "colored"))

	chat := aliceSink.ofKind("chat message")[0].(event.ChatMessage)
	req.Equal("#e91e63", chat.Color)
}

func TestRelay_HistoryReplayOnJoin(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)

	alice, _ := connect(relay, "Alice")
	_, err := relay.JoinRoom(alice, "General")
	req.NoError(err)
	for i := 0; i < 3; i++ {
		req.NoError(relay.PostMessage(alice, fmt.Sprintf("msg-%d", i)))
	}

	// When a newcomer joins the room
	bob, bobSink := connect(relay, "Bob")
	_, err = relay.JoinRoom(bob, "General")
	req.NoError(err)

	// Then the full history arrives, to the newcomer only, in order
	replayed := bobSink.ofKind("chat message")
	req.Len(replayed, 3)
	for i, e := range replayed {
		req.Equal(fmt.Sprintf("msg-%d", i), e.(event.ChatMessage).Text)
	}

	// And the replay follows the join confirmation
	var sawJoin bool
	for _, e := range bobSink.events {
		if e.Name() == "RoomJoined" {
			sawJoin = true
		}
		if e.Name() == "chat message" {
			req.True(sawJoin, "replay must come after the join confirmation")
		}
	}
}

func TestRelay_ReplayDoesNotRebroadcast(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)

	alice, aliceSink := connect(relay, "Alice")
	_, err := relay.JoinRoom(alice, "General")
	req.NoError(err)
	req.NoError(relay.PostMessage(alice, "original"))
	aliceSink.reset()

	// When someone else joins and receives the replay
	bob, _ := connect(relay, "Bob")
	_, err = relay.JoinRoom(bob, "General")
	req.NoError(err)

	// Then the existing member sees no duplicated chat message
	req.Empty(aliceSink.ofKind("chat message"))
}

func TestRelay_Typing_ExcludesSenderAndAnonymous(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)

	alice, aliceSink := connect(relay, "Alice")
	bob, bobSink := connect(relay, "Bob")
	_, err := relay.JoinRoom(alice, "General")
	req.NoError(err)
	_, err = relay.JoinRoom(bob, "General")
	req.NoError(err)
	aliceSink.reset()
	bobSink.reset()

	relay.Typing(alice)
	relay.StopTyping(alice)

	req.Equal([]event.Event{
		event.Typing{User: "Alice", Room: "General"},
		event.StopTyping{User: "Alice", Room: "General"},
	}, bobSink.events)
	req.Empty(aliceSink.events)

	// An anonymous session's typing is silently ignored
	anonymous, _ := connect(relay, "")
	_, err = relay.JoinRoom(anonymous, "General")
	req.NoError(err)
	bobSink.reset()
	relay.Typing(anonymous)
	req.Empty(bobSink.ofKind("typing"))
}

func TestRelay_Disconnect_NotifiesRoom(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)

	alice, _ := connect(relay, "Alice")
	bob, bobSink := connect(relay, "Bob")
	_, err := relay.JoinRoom(alice, "General")
	req.NoError(err)
	_, err = relay.JoinRoom(bob, "General")
	req.NoError(err)
	bobSink.reset()

	relay.Disconnect(alice)

	req.Equal([]event.Event{
		event.System{Text: "Alice left #General"},
		event.RoomUserCount{Room: "General", Count: 1},
		event.UserCount(1),
	}, bobSink.events)
}

func TestRelay_Disconnect_AnonymousOnlyUpdatesGlobalCount(t *testing.T) {
	req := require.New(t)
	relay := newTestRelay(t)

	anonymous, _ := connect(relay, "")
	_, err := relay.JoinRoom(anonymous, "General")
	req.NoError(err)
	bob, bobSink := connect(relay, "Bob")
	_, err = relay.JoinRoom(bob, "General")
	req.NoError(err)
	bobSink.reset()

	relay.Disconnect(anonymous)

	// No departure notice without an identity, just the global count
	req.Empty(bobSink.ofKind("system"))
	req.Equal([]event.Event{event.UserCount(1)}, bobSink.ofKind("UserCount"))
}
