package runtime

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/repositories"
)

// Relay owns every state transition of the chat system: session lifecycle,
// room membership, presence counts, broadcast and history. One mutex
// serializes all inbound operations, so each event is handled to completion
// before the next one starts and no session or room state needs finer
// locking. The synchronous history write inside PostMessage sits on the same
// path, which means a slow disk delays every subsequent event of any kind.
type Relay struct {
	mu       sync.Mutex
	log      *slog.Logger
	registry contract.IRegistry
	history  repositories.IHistoryRepository
	monitor  *observability.Monitor
}

func NewRelay(log *slog.Logger, registry contract.IRegistry, history repositories.IHistoryRepository, monitor *observability.Monitor) *Relay {
	return &Relay{log: log, registry: registry, history: history, monitor: monitor}
}

// Connect registers a session's sink and announces the new global presence
// count to every live connection, the new one included.
func (r *Relay) Connect(session *domain.Session, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registry.AddSession(session.ID, sink)
	r.monitor.IncrConnect()
	r.emitAll(event.UserCount(r.registry.SessionCount()))
}

// Disconnect tears the session down. A session that had claimed a username
// and joined a room leaves a departure notice and an updated room count
// behind; the global count update goes out unconditionally.
func (r *Relay) Disconnect(session *domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registry.RemoveSession(session.ID)
	r.monitor.IncrDisconnect()
	if session.Username != "" && session.Room != "" {
		r.emitRoom(session.Room, event.System{
			Text: fmt.Sprintf("%s left #%s", session.Username, session.Room),
		})
		r.emitRoom(session.Room, event.RoomUserCount{
			Room:  session.Room,
			Count: r.registry.RoomCount(session.Room),
		})
	}
	r.emitAll(event.UserCount(r.registry.SessionCount()))
}

// SetUsername claims or replaces the session's identity. See
// domain.Session.SetUsername for the trimming and truncation rules.
func (r *Relay) SetUsername(session *domain.Session, raw string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return session.SetUsername(raw)
}

// SetColor stores the session's color, picking a palette entry when blank.
func (r *Relay) SetColor(session *domain.Session, raw string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return session.SetColor(raw)
}

// JoinRoom moves the session into target (DefaultRoom when blank).
// Re-joining the current room is a no-op with no side effects. Otherwise the
// old room's departure effects fully precede the new room's arrival effects:
// leave notice and count first, then membership, arrival notice, the join
// confirmation, the new count, and finally the history replay to the joiner
// only. Replay never re-broadcasts and never re-persists.
func (r *Relay) JoinRoom(session *domain.Session, target string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target = strings.TrimSpace(target)
	if target == "" {
		target = domain.DefaultRoom
	}
	if session.Room == target {
		return target, nil
	}

	name := session.DisplayName()
	if session.Room != "" {
		r.registry.LeaveRoom(session.ID, session.Room)
		r.emitRoom(session.Room, event.System{
			Text: fmt.Sprintf("%s left #%s", name, session.Room),
		})
		r.emitRoom(session.Room, event.RoomUserCount{
			Room:  session.Room,
			Count: r.registry.RoomCount(session.Room),
		})
	}

	r.registry.JoinRoom(session.ID, target)
	session.Room = target
	r.emitRoom(target, event.System{
		Text: fmt.Sprintf("%s joined #%s", name, target),
	}, session.ID)
	r.emitSession(session.ID, event.RoomJoined{Room: target})
	r.emitRoom(target, event.RoomUserCount{
		Room:  target,
		Count: r.registry.RoomCount(target),
	})
	r.replayHistory(session.ID, target)

	return target, nil
}

// replayHistory delivers the room's stored log to one session, in the order
// it was appended. A failed read costs the joiner their replay, nothing else.
func (r *Relay) replayHistory(sessionID, room string) {
	stored, err := r.history.Replay(room)
	if err != nil {
		r.log.Error("History replay failed", "room", room, "error", err)
		return
	}
	replay := lo.Map(stored, func(m repositories.DiskMessage, _ int) event.ChatMessage {
		return event.FromMessage(toMessage(m))
	})
	for _, e := range replay {
		r.emitSession(sessionID, e)
	}
	r.monitor.IncrHistoryReplay()
}

// PostMessage validates, broadcasts and persists one chat message. A session
// without an identity is rejected before anything happens. The broadcast
// reaches every member of the session's room, the sender included when it is
// a member. The returned error reflects validation only; a failed persist is
// logged and the in-memory broadcast stands (durability is lost for that one
// message, an accepted risk).
func (r *Relay) PostMessage(session *domain.Session, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.Username == "" {
		return errors.ErrNoIdentity
	}

	room := session.CurrentRoom()
	message := domain.NewMessage(session.Username, text, session.Color, room, time.Now().UTC())
	r.emitRoom(room, event.FromMessage(message))
	r.monitor.IncrMessageRelayed()

	if err := r.history.Append(toDiskMessage(message)); err != nil {
		r.log.Error("History append failed", "room", room, "error", err)
	}
	return nil
}

// Typing forwards a typing notice to the other members of the session's
// room. Anonymous sessions are silently ignored.
func (r *Relay) Typing(session *domain.Session) {
	r.notifyTyping(session, func(user, room string) event.Event {
		return event.Typing{User: user, Room: room}
	})
}

// StopTyping forwards the matching stop notice, with the same rules.
func (r *Relay) StopTyping(session *domain.Session) {
	r.notifyTyping(session, func(user, room string) event.Event {
		return event.StopTyping{User: user, Room: room}
	})
}

func (r *Relay) notifyTyping(session *domain.Session, build func(user, room string) event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.Username == "" {
		return
	}
	r.emitRoom(session.CurrentRoom(), build(session.Username, session.CurrentRoom()), session.ID)
}

// Stats snapshots the relay's activity counters and live totals.
func (r *Relay) Stats() observability.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.monitor.Snapshot(r.registry.SessionCount(), r.registry.RoomTotal())
}

func (r *Relay) emitAll(e event.Event) {
	for _, sink := range r.registry.AllSinks() {
		r.consume(sink, e)
	}
}

func (r *Relay) emitRoom(room string, e event.Event, exclude ...string) {
	for _, sink := range r.registry.SinksForRoom(room, exclude...) {
		r.consume(sink, e)
	}
}

func (r *Relay) emitSession(sessionID string, e event.Event) {
	if sink, ok := r.registry.SinkOf(sessionID); ok {
		r.consume(sink, e)
	}
}

func (r *Relay) consume(sink contract.EventSink, e event.Event) {
	if err := sink.Consume(e); err != nil {
		r.log.Warn("Event delivery failed", "event", e.Name(), "error", err)
	}
}

func toDiskMessage(m domain.Message) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:     m.ID,
		Room:   m.Room,
		Author: m.Author,
		Text:   m.Text,
		Color:  m.Color,
		At:     m.At,
	}
}

func toMessage(m repositories.DiskMessage) domain.Message {
	return domain.Message{
		ID:     m.ID,
		Author: m.Author,
		Text:   m.Text,
		Color:  m.Color,
		Room:   m.Room,
		At:     m.At,
	}
}
