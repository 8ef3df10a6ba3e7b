// Package runtime drives session registration, room membership, broadcast
// and history replay. It orchestrates the relay without containing wire or
// storage logic.
package runtime

import (
	"sync"

	"chat-relay/contract"
)

type Set map[string]struct{}

// Registry tracks the delivery sink of every live session and the derived
// member set of every room. Rooms exist implicitly: they appear on first
// join and their entry is removed once the last member leaves.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]contract.EventSink
	roomMembers map[string]Set
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]contract.EventSink),
		roomMembers: make(map[string]Set),
	}
}

// AddSession registers a live connection's sink under its session ID.
func (r *Registry) AddSession(sessionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = sink
}

// RemoveSession drops the session and sweeps it out of any room it was in,
// so no empty sets are left behind to leak over time.
func (r *Registry) RemoveSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sessionID)
	for room, members := range r.roomMembers {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.roomMembers, room)
		}
	}
}

// JoinRoom adds the session to a room, creating the room on the fly.
func (r *Registry) JoinRoom(sessionID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roomMembers[room]; !ok {
		r.roomMembers[room] = make(Set)
	}
	r.roomMembers[room][sessionID] = struct{}{}
}

// LeaveRoom removes the session from a room and deletes the room entry when
// it is the last member out.
func (r *Registry) LeaveRoom(sessionID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.roomMembers[room]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.roomMembers, room)
		}
	}
}

// SinkOf resolves one session's sink.
func (r *Registry) SinkOf(sessionID string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[sessionID]
	return sink, ok
}

// AllSinks returns the sinks of every live session except the excluded ones.
func (r *Registry) AllSinks(exclude ...string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for sessionID, sink := range r.sessions {
		if contains(exclude, sessionID) {
			continue
		}
		sinks = append(sinks, sink)
	}
	return sinks
}

// SinksForRoom resolves the current members of a room into their sinks,
// skipping the excluded session IDs. Returns nil for an unknown room.
func (r *Registry) SinksForRoom(room string, exclude ...string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for sessionID := range members {
		if contains(exclude, sessionID) {
			continue
		}
		if sink, exists := r.sessions[sessionID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// SessionCount returns the number of live sessions at call time.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// RoomCount returns the number of members currently in a room.
func (r *Registry) RoomCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.roomMembers[room])
}

// RoomTotal returns the number of rooms with at least one member.
func (r *Registry) RoomTotal() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.roomMembers)
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
